package websocket

// Типизированные сообщения - без map[string]interface{},
// чтобы не платить за рефлексию при каждой рассылке.

// Типы исходящих сообщений
const (
	MessageTypeOrderExecuted = "orderExecuted"
	MessageTypeBotStatus     = "botStatus"
)

// OrderExecutedMessage - уведомление об исполнении ордера
type OrderExecutedMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// BotStatusMessage - итог прохода проверки ордеров
type BotStatusMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
