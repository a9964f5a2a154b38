package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xtaci/kcp-go/v5"

	"github.com/annel0/ufo-survivor/internal/auth"
	"github.com/annel0/ufo-survivor/internal/logging"
	"github.com/annel0/ufo-survivor/internal/session"
	"github.com/annel0/ufo-survivor/internal/vec"
)

// Ошибки, которые сервер возвращает клиенту в MsgError
var (
	ErrNotAttached = errors.New("attach required")
	ErrReadOnly    = errors.New("observer connection is read-only")
	ErrBadMessage  = errors.New("unsupported message type")
)

// rejectLinger даёт последнему кадру уйти до закрытия соединения
const rejectLinger = 100 * time.Millisecond

// Server раздаёт снимки забегов и принимает команды игрока по KCP.
//
// Первое сообщение клиента — MsgAttach с run_id. С токеном забега клиент
// управляет игроком, без токена только наблюдает.
type Server struct {
	addr     string
	sessions *session.Manager
	tokens   *auth.TokenIssuer
	config   *ChannelConfig
	period   time.Duration
	metrics  *Metrics
	logger   *logging.Logger

	listener *kcp.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	clientsMu sync.RWMutex
	clients   map[*KCPChannel]struct{}
}

// NewServer создаёт KCP-сервер. snapshotRate — снимков в секунду на клиента.
func NewServer(addr string, sessions *session.Manager, tokens *auth.TokenIssuer, snapshotRate int, metrics *Metrics) *Server {
	if snapshotRate <= 0 {
		snapshotRate = 20
	}
	return &Server{
		addr:     addr,
		sessions: sessions,
		tokens:   tokens,
		config:   DefaultChannelConfig(),
		period:   time.Second / time.Duration(snapshotRate),
		metrics:  metrics,
		logger:   logging.GetNetworkLogger(),
		clients:  make(map[*KCPChannel]struct{}),
	}
}

// Start начинает принимать соединения
func (s *Server) Start() error {
	listener, err := kcp.ListenWithOptions(s.addr, nil, s.config.DataShards, s.config.ParityShards)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("🚀 KCP сервер запущен на %s", listener.Addr())
	return nil
}

// Addr возвращает фактический адрес после Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop закрывает слушатель и все клиентские каналы
func (s *Server) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	err := s.listener.Close()

	s.clientsMu.Lock()
	for ch := range s.clients {
		ch.Close()
	}
	s.clientsMu.Unlock()

	s.wg.Wait()
	s.logger.Info("🛑 KCP сервер остановлен")
	return err
}

// ClientCount возвращает число подключённых клиентов
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.AcceptKCP()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return // Сервер останавливается
			default:
				s.logger.Error("Failed to accept connection: %v", err)
				continue
			}
		}

		ch, err := NewKCPChannelFromConn(conn, s.config, s.logger)
		if err != nil {
			s.logger.Error("❌ Не удалось открыть канал %s: %v", conn.RemoteAddr(), err)
			continue
		}

		s.wg.Add(1)
		go s.handleConn(ch)
	}
}

// handleConn ведёт одного клиента от attach до разрыва
func (s *Server) handleConn(ch *KCPChannel) {
	defer s.wg.Done()
	defer ch.Close()

	s.clientsMu.Lock()
	s.clients[ch] = struct{}{}
	s.clientsMu.Unlock()
	s.metrics.connected(1)
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, ch)
		s.clientsMu.Unlock()
		s.metrics.connected(-1)
	}()

	attachCtx, cancel := context.WithTimeout(s.ctx, s.config.AttachWait)
	msg, err := ch.Receive(attachCtx)
	cancel()
	if err != nil {
		s.logger.Debug("Клиент %s отключился до attach: %v", ch.RemoteAddr(), err)
		s.rejectMalformed(ch)
		return
	}
	s.metrics.frame("in", msg.Type)

	if msg.Type != MsgAttach {
		s.reply(ch, msg.Seq, ErrNotAttached)
		s.metrics.reject("not_attached")
		s.linger()
		return
	}

	sess, controller, err := s.attach(msg)
	if err != nil {
		s.reply(ch, msg.Seq, err)
		s.metrics.reject("attach")
		s.linger()
		return
	}
	s.reply(ch, msg.Seq, nil)

	mode := "наблюдатель"
	if controller {
		mode = "игрок"
	}
	s.logger.Info("🔌 %s подключён к забегу %s (%s)", ch.RemoteAddr(), sess.ID(), mode)

	s.wg.Add(1)
	go s.pushSnapshots(ch, sess)

	for {
		msg, err := ch.Receive(s.ctx)
		if err != nil {
			s.logger.Debug("Клиент %s отключён: %v", ch.RemoteAddr(), err)
			s.rejectMalformed(ch)
			return
		}
		s.metrics.frame("in", msg.Type)

		if !controller {
			s.reply(ch, msg.Seq, ErrReadOnly)
			s.metrics.reject("read_only")
			continue
		}
		s.reply(ch, msg.Seq, s.dispatch(sess, msg))
	}
}

// rejectMalformed учитывает разрыв из-за неразборчивого кадра
func (s *Server) rejectMalformed(ch *KCPChannel) {
	var frameErr *FrameError
	if errors.As(ch.Err(), &frameErr) {
		s.metrics.reject("malformed")
	}
}

// attach проверяет забег и токен
func (s *Server) attach(msg *Message) (*session.Session, bool, error) {
	sess, err := s.sessions.Get(msg.RunID)
	if err != nil {
		return nil, false, err
	}
	if msg.Token == "" {
		return sess, false, nil
	}
	if err := s.tokens.Authorize(msg.Token, msg.RunID); err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// dispatch выполняет команду игрока
func (s *Server) dispatch(sess *session.Session, msg *Message) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.config.CmdTimeout)
	defer cancel()

	switch msg.Type {
	case MsgIntent:
		return sess.SetIntent(ctx, vec.Vec2Float{X: msg.X, Y: msg.Y})
	case MsgDirection:
		return sess.SetDirection(ctx, vec.Vec2Float{X: msg.X, Y: msg.Y})
	case MsgShoot:
		_, err := sess.Shoot(ctx)
		return err
	case MsgUpgrade:
		return sess.ChooseUpgrade(ctx, msg.Option)
	default:
		return fmt.Errorf("%w: %s", ErrBadMessage, msg.Type)
	}
}

// reply отправляет Ack или Error со ссылкой на запрос
func (s *Server) reply(ch *KCPChannel, ref uint32, err error) {
	resp := &Message{Type: MsgAck, Ref: ref}
	if err != nil {
		resp.Type = MsgError
		resp.Error = err.Error()
	}
	s.send(ch, resp)
}

func (s *Server) linger() {
	select {
	case <-time.After(rejectLinger):
	case <-s.ctx.Done():
	}
}

func (s *Server) send(ch *KCPChannel, msg *Message) bool {
	if _, err := ch.Send(msg); err != nil {
		if !errors.Is(err, ErrChannelClosed) {
			s.logger.Warn("⚠️ Отправка %s клиенту %s: %v", msg.Type, ch.RemoteAddr(), err)
		}
		return false
	}
	s.metrics.frame("out", msg.Type)
	return true
}

// pushSnapshots периодически отправляет снимок забега клиенту
func (s *Server) pushSnapshots(ch *KCPChannel, sess *session.Session) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ch.Done():
			return
		case <-sess.Done():
			s.reply(ch, 0, session.ErrSessionClosed)
			s.linger()
			ch.Close()
			return
		case <-ticker.C:
			snap, err := sess.Snapshot(s.ctx)
			if err != nil {
				if errors.Is(err, session.ErrSessionClosed) {
					continue // следующая итерация увидит sess.Done()
				}
				s.logger.Warn("⚠️ Снимок забега %s: %v", sess.ID(), err)
				continue
			}
			if !s.send(ch, &Message{Type: MsgSnapshot, RunID: sess.ID(), Snapshot: snap}) {
				return
			}
		}
	}
}
