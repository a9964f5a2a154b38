package network

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xtaci/kcp-go/v5"

	"github.com/annel0/ufo-survivor/internal/logging"
)

// ErrChannelClosed возвращается при работе с закрытым каналом
var ErrChannelClosed = errors.New("channel closed")

// KCPChannel — надёжный канал поверх KCP с кадрами zstd+msgpack
type KCPChannel struct {
	conn   *kcp.UDPSession
	codec  *Codec
	config *ChannelConfig
	logger *logging.Logger

	writeMu sync.Mutex
	seq     uint32

	recvBuffer chan *Message
	closeOnce  sync.Once
	closeCh    chan struct{}
	errMu      sync.Mutex
	readErr    error

	framesSent     atomic.Uint64
	framesReceived atomic.Uint64
	bytesSent      atomic.Uint64
	bytesReceived  atomic.Uint64
	lastActivity   atomic.Int64
}

// DialKCP подключается к KCP-серверу
func DialKCP(ctx context.Context, addr string, config *ChannelConfig, logger *logging.Logger) (*KCPChannel, error) {
	if config == nil {
		config = DefaultChannelConfig()
	}

	conn, err := kcp.DialWithOptions(addr, nil, config.DataShards, config.ParityShards)
	if err != nil {
		return nil, fmt.Errorf("failed to dial KCP: %w", err)
	}
	if err := ctx.Err(); err != nil {
		conn.Close()
		return nil, err
	}

	return NewKCPChannelFromConn(conn, config, logger)
}

// NewKCPChannelFromConn оборачивает готовое KCP соединение
func NewKCPChannelFromConn(conn *kcp.UDPSession, config *ChannelConfig, logger *logging.Logger) (*KCPChannel, error) {
	if config == nil {
		config = DefaultChannelConfig()
	}
	if logger == nil {
		logger = logging.GetNetworkLogger()
	}

	codec, err := NewCodec(config.MaxFrameSize)
	if err != nil {
		conn.Close()
		return nil, err
	}

	tuneSession(conn)

	ch := &KCPChannel{
		conn:       conn,
		codec:      codec,
		config:     config,
		logger:     logger,
		recvBuffer: make(chan *Message, config.BufferSize),
		closeCh:    make(chan struct{}),
	}
	ch.lastActivity.Store(time.Now().UnixNano())

	go ch.receiveLoop()

	logger.Debug("KCP канал открыт: %s", conn.RemoteAddr())
	return ch, nil
}

// Send отправляет сообщение и возвращает присвоенный ему Seq
func (ch *KCPChannel) Send(msg *Message) (uint32, error) {
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()

	select {
	case <-ch.closeCh:
		return 0, ErrChannelClosed
	default:
	}

	ch.seq++
	msg.Seq = ch.seq

	frame, err := ch.codec.EncodeFrame(msg)
	if err != nil {
		return 0, err
	}

	if ch.config.WriteTimeout > 0 {
		_ = ch.conn.SetWriteDeadline(time.Now().Add(ch.config.WriteTimeout))
	}
	if _, err := ch.conn.Write(frame); err != nil {
		return 0, fmt.Errorf("send %s: %w", msg.Type, err)
	}

	ch.framesSent.Add(1)
	ch.bytesSent.Add(uint64(len(frame)))
	ch.lastActivity.Store(time.Now().UnixNano())
	return msg.Seq, nil
}

// Receive ждёт следующее входящее сообщение
func (ch *KCPChannel) Receive(ctx context.Context) (*Message, error) {
	select {
	case msg, ok := <-ch.recvBuffer:
		if !ok {
			return nil, ch.Err()
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// receiveLoop читает кадры из соединения
func (ch *KCPChannel) receiveLoop() {
	defer close(ch.recvBuffer)
	defer func() {
		// К этому моменту closeCh закрыт и Send больше не кодирует
		ch.writeMu.Lock()
		ch.codec.Close()
		ch.writeMu.Unlock()
	}()

	reader := bufio.NewReaderSize(ch.conn, 32*1024)
	for {
		if ch.config.IdleTimeout > 0 {
			_ = ch.conn.SetReadDeadline(time.Now().Add(ch.config.IdleTimeout))
		}

		msg, n, err := ch.codec.ReadFrame(reader)
		ch.bytesReceived.Add(uint64(n))
		if err != nil {
			ch.fail(err)
			return
		}

		ch.framesReceived.Add(1)
		ch.lastActivity.Store(time.Now().UnixNano())

		select {
		case ch.recvBuffer <- msg:
		case <-ch.closeCh:
			return
		}
	}
}

// fail запоминает причину остановки чтения и закрывает канал
func (ch *KCPChannel) fail(err error) {
	select {
	case <-ch.closeCh:
		// Закрыт локально, ошибка чтения ожидаема
		err = ErrChannelClosed
	default:
		var frameErr *FrameError
		switch {
		case errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe):
			err = ErrChannelClosed
		case errors.As(err, &frameErr):
			ch.logger.LogProtocolError(ch.RemoteAddr(), frameErr.Err, frameErr.Payload)
		default:
			ch.logger.Warn("KCP канал %s: ошибка чтения: %v", ch.RemoteAddr(), err)
		}
	}

	ch.errMu.Lock()
	if ch.readErr == nil {
		ch.readErr = err
	}
	ch.errMu.Unlock()
	ch.Close()
}

// Err возвращает причину остановки приёма
func (ch *KCPChannel) Err() error {
	ch.errMu.Lock()
	defer ch.errMu.Unlock()
	if ch.readErr != nil {
		return ch.readErr
	}
	return ErrChannelClosed
}

// Close закрывает канал
func (ch *KCPChannel) Close() error {
	var err error
	ch.closeOnce.Do(func() {
		close(ch.closeCh)
		err = ch.conn.Close()
		ch.logger.Debug("KCP канал закрыт: %s", ch.RemoteAddr())
	})
	return err
}

// Done закрывается вместе с каналом
func (ch *KCPChannel) Done() <-chan struct{} {
	return ch.closeCh
}

// RemoteAddr возвращает адрес удалённого узла
func (ch *KCPChannel) RemoteAddr() string {
	return ch.conn.RemoteAddr().String()
}

// Stats возвращает статистику соединения
func (ch *KCPChannel) Stats() ConnectionStats {
	connected := true
	select {
	case <-ch.closeCh:
		connected = false
	default:
	}
	return ConnectionStats{
		FramesSent:     ch.framesSent.Load(),
		FramesReceived: ch.framesReceived.Load(),
		BytesSent:      ch.bytesSent.Load(),
		BytesReceived:  ch.bytesReceived.Load(),
		LastActivity:   time.Unix(0, ch.lastActivity.Load()),
		Connected:      connected,
		RemoteAddr:     ch.RemoteAddr(),
	}
}
