package mq

import "errors"

// Ошибки MQ.
var (
	// ErrNoChannel — соединение ещё не установлено или потеряно.
	ErrNoChannel = errors.New("no amqp channel available")

	// ErrUnexpectedType — тип сообщения не ожидается обработчиком.
	ErrUnexpectedType = errors.New("unexpected message type")
)
