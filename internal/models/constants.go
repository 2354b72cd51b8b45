package models

const (
	StatusPending         = "pending"
	StatusAwaitingPayment = "awaiting_payment"
	StatusConfirmed       = "confirmed"
	StatusPaymentFailed   = "payment_failed"
	StatusCancelled       = "cancelled"
	StatusCompleted       = "completed"
)

const (
	// DefaultCurrency used for payment intents.
	DefaultCurrency = "usd"

	// CatalogCacheTTL время жизни кэша списков каталога
	CatalogCacheTTL = 5 * 60 // 5 минут в секундах

	// BookingsCacheTTL время жизни кэша списка бронирований пользователя
	BookingsCacheTTL = 10 * 60 // 10 минут в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000

	// ReconcileAfterSeconds сколько платеж может висеть до сверки с процессором
	ReconcileAfterSeconds = 15 * 60

	// RateLimitRequests количество запросов в окне
	RateLimitRequests = 60

	// RateLimitWindow окно ограничения частоты запросов
	RateLimitWindow = 60 // 1 минута в секундах
)
