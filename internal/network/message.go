package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/annel0/ufo-survivor/internal/world"
)

// MaxFrameSize ограничивает размер сжатого кадра
const MaxFrameSize = 1 << 20

// frameHeaderSize — длина префикса кадра (uint32, little endian)
const frameHeaderSize = 4

// ErrFrameTooLarge возвращается для кадра больше предела
var ErrFrameTooLarge = errors.New("frame too large")

// FrameError — кадр прочитан целиком, но не разобран
type FrameError struct {
	Payload []byte
	Err     error
}

func (e *FrameError) Error() string { return e.Err.Error() }

func (e *FrameError) Unwrap() error { return e.Err }

// MessageType определяет тип сообщения протокола
type MessageType uint8

const (
	MsgAttach    MessageType = iota + 1 // клиент: подключиться к забегу (run_id, token)
	MsgIntent                           // клиент: скорость игрока (x, y)
	MsgDirection                        // клиент: направление движения (x, y)
	MsgShoot                            // клиент: ручной выстрел
	MsgUpgrade                          // клиент: выбор улучшения (option)
	MsgSnapshot                         // сервер: снимок забега
	MsgAck                              // сервер: команда принята (ref)
	MsgError                            // сервер: запрос отклонён (ref, error)
)

var messageTypeNames = map[MessageType]string{
	MsgAttach:    "attach",
	MsgIntent:    "intent",
	MsgDirection: "direction",
	MsgShoot:     "shoot",
	MsgUpgrade:   "upgrade",
	MsgSnapshot:  "snapshot",
	MsgAck:       "ack",
	MsgError:     "error",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// Message — единственный конверт протокола в обе стороны
type Message struct {
	Type     MessageType     `msgpack:"t"`
	Seq      uint32          `msgpack:"s"`
	Ref      uint32          `msgpack:"ref,omitempty"`
	RunID    string          `msgpack:"run,omitempty"`
	Token    string          `msgpack:"tok,omitempty"`
	X        float64         `msgpack:"x,omitempty"`
	Y        float64         `msgpack:"y,omitempty"`
	Option   int             `msgpack:"opt,omitempty"`
	Snapshot *world.Snapshot `msgpack:"snap,omitempty"`
	Error    string          `msgpack:"err,omitempty"`
}

// Codec кодирует кадры [uint32 len][zstd(msgpack)]
type Codec struct {
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	maxFrame int
}

// NewCodec создаёт кодек с пределом размера кадра
func NewCodec(maxFrame int) (*Codec, error) {
	if maxFrame <= 0 {
		maxFrame = MaxFrameSize
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxFrame)*16))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Codec{encoder: enc, decoder: dec, maxFrame: maxFrame}, nil
}

// EncodeFrame сериализует сообщение в кадр
func (c *Codec) EncodeFrame(msg *Message) ([]byte, error) {
	raw, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Type, err)
	}

	frame := make([]byte, frameHeaderSize, frameHeaderSize+len(raw))
	frame = c.encoder.EncodeAll(raw, frame)
	payloadLen := len(frame) - frameHeaderSize
	if payloadLen > c.maxFrame {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, payloadLen)
	}
	binary.LittleEndian.PutUint32(frame[:frameHeaderSize], uint32(payloadLen))
	return frame, nil
}

// ReadFrame читает ровно один кадр из потока
func (c *Codec) ReadFrame(r io.Reader) (*Message, int, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, 0, err
	}

	length := binary.LittleEndian.Uint32(header[:])
	if length == 0 || int(length) > c.maxFrame {
		return nil, frameHeaderSize, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, frameHeaderSize, fmt.Errorf("read frame payload: %w", err)
	}
	size := frameHeaderSize + int(length)

	raw, err := c.decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, size, &FrameError{Payload: payload, Err: fmt.Errorf("decompression failed: %w", err)}
	}

	var msg Message
	if err := msgpack.Unmarshal(raw, &msg); err != nil {
		return nil, size, &FrameError{Payload: raw, Err: fmt.Errorf("failed to unmarshal message: %w", err)}
	}
	return &msg, size, nil
}

// Close освобождает ресурсы zstd
func (c *Codec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}
