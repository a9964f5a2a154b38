// Package network предоставляет KCP-транспорт для наблюдения за забегом
// и управления им в реальном времени.
package network

import (
	"time"

	"github.com/xtaci/kcp-go/v5"
)

// ConnectionStats содержит статистику соединения
type ConnectionStats struct {
	FramesSent     uint64    // Отправлено кадров
	FramesReceived uint64    // Получено кадров
	BytesSent      uint64    // Отправлено байт
	BytesReceived  uint64    // Получено байт
	LastActivity   time.Time // Последняя активность
	Connected      bool      // Статус соединения
	RemoteAddr     string    // Адрес удалённого узла
}

// ChannelConfig содержит конфигурацию канала
type ChannelConfig struct {
	BufferSize   int           // Очередь входящих сообщений
	IdleTimeout  time.Duration // Тишина от клиента до разрыва, 0 — без ограничения
	WriteTimeout time.Duration // Дедлайн записи кадра
	CmdTimeout   time.Duration // Ожидание исполнения команды сессией
	AttachWait   time.Duration // Ожидание attach после подключения
	MaxFrameSize int           // Предел размера кадра
	DataShards   int           // FEC: данные
	ParityShards int           // FEC: чётность
}

// DefaultChannelConfig возвращает конфигурацию канала по умолчанию
func DefaultChannelConfig() *ChannelConfig {
	return &ChannelConfig{
		BufferSize:   256,
		WriteTimeout: 10 * time.Second,
		CmdTimeout:   5 * time.Second,
		AttachWait:   5 * time.Second,
		MaxFrameSize: MaxFrameSize,
		DataShards:   10,
		ParityShards: 3,
	}
}

// tuneSession настраивает KCP параметры для игрового трафика
func tuneSession(conn *kcp.UDPSession) {
	conn.SetStreamMode(true)
	conn.SetWriteDelay(false)
	conn.SetNoDelay(1, 20, 2, 1) // Агрессивные настройки для игр
	conn.SetWindowSize(512, 512) // Увеличиваем окно для пропускной способности
	conn.SetMtu(1400)            // Стандартный MTU для интернета
}
