// Package ports - ProviderGateway определяет контракт для внешних VAS-провайдеров
// (§4.5). Два провайдера, два разных протокола, один интерфейс -
// Orchestrator не должен знать, что Provider-A - это multi-step bill-pay
// flow, а Provider-B - однократный POST.
//
// SOLID Principles:
// - DIP: use case зависит от абстракции, не от HTTP-клиента конкретного провайдера
// - ISP: один метод на один шаг потока; Router (§4.4) решает, какие вызывать
package ports

import (
	"context"
	"time"
)

// BillerCategory перечисляет категории billers, которые знает Provider-A
// (шаг 2 из §4.5: list billers by category).
type BillerCategory string

const (
	BillerCategoryAirtime BillerCategory = "AIRTIME"
	BillerCategoryData    BillerCategory = "DATA"
)

// Biller - один biller, возвращаемый Provider-A по категории.
type Biller struct {
	BillerCode string
	Name       string
}

// BillerProduct - один продукт (план) конкретного biller.
type BillerProduct struct {
	ProductCode string
	Name        string
	Amount      int64 // minor units, 0 если продукт variable-amount
}

// CustomerValidation - результат шага 4 (validate customer) Provider-A.
type CustomerValidation struct {
	ValidationReference string
	RequireValidationRef bool
	CustomerName         string
}

// VendRequest описывает один vend-вызов (airtime или data), общий для обоих
// провайдеров - ProviderGateway сам решает, как замаппить поля на свой
// конкретный HTTP-контракт.
type VendRequest struct {
	ProductCode          string
	CustomerID           string // номер телефона получателя
	AmountMinorUnits     int64
	VendReference        string // = requestId, идемпотентный ключ (§4.5, §4.6 step 6)
	ValidationReference  string // из CustomerValidation, если RequireValidationRef
}

// VendStatus - статус ответа vend-вызова.
type VendStatus string

const (
	VendStatusSuccess    VendStatus = "SUCCESS"
	VendStatusInProgress VendStatus = "IN_PROGRESS"
	VendStatusFailed     VendStatus = "FAILED"
)

// VendResult - результат успешного (или IN_PROGRESS) vend-вызова (§4.5).
type VendResult struct {
	Status               VendStatus
	TransactionReference string
	VendReference        string
	ProductName          string
	VendAmountMinorUnits int64
	CommissionMinorUnits int64
}

// ProviderGateway - единый порт для обоих VAS-провайдеров. Каждая
// реализация (infrastructure/provider/providera, .../providerb) оборачивает
// один конкретный провайдер; Router (§4.4) и Orchestrator (§4.6) работают
// только через этот интерфейс.
//
// Все вызовы несут 12-секундный таймаут (§4.5, §5): реализация обязана
// настроить http.Client{Timeout: 12 * time.Second} и одновременно уважать
// ctx, переданный вызывающим, - что наступит раньше.
//
// Ошибки: connection/timeout -> *errors.ProviderError{Kind: ProviderUnreachable};
// 4xx без success-маркеров -> ProviderRejected; 5xx -> ProviderFailed.
type ProviderGateway interface {
	// Authenticate выполняет шаг 1 Provider-A: получает bearer-токен.
	// TTL берётся из ответа провайдера; вызывающий (обычно token cache)
	// отвечает за кеширование - сам метод всегда делает реальный HTTP-запрос.
	// Provider-B не имеет отдельного auth-шага и может вернуть
	// ErrProviderHasNoAuthStep.
	Authenticate(ctx context.Context) (token string, ttl time.Duration, err error)

	// ListBillers выполняет шаг 2 Provider-A (GET billers by category).
	ListBillers(ctx context.Context, token string, category BillerCategory) ([]Biller, error)

	// ListProducts выполняет шаг 3 Provider-A (GET biller-products).
	ListProducts(ctx context.Context, token string, billerCode string) ([]BillerProduct, error)

	// ValidateCustomer выполняет шаг 4 Provider-A (POST validate-customer).
	// Provider-B не требует этого шага и реализация может вернуть
	// RequireValidationRef=false без сетевого вызова.
	ValidateCustomer(ctx context.Context, token, productCode, customerID string) (*CustomerValidation, error)

	// Vend выполняет фактическую покупку:
	//   - Provider-A: шаг 5 (POST vend); если ответ IN_PROGRESS, вызывающий
	//     (Orchestrator) сам делает sleep(3s) + Requery ровно один раз (§4.5
	//     шаг 6) - Vend сама по себе не ретраит.
	//   - Provider-B: единственный POST с токеном; реализация обязана
	//     терпеть документированную особенность (HTTP 200 с нечитаемым телом
	//     ИЛИ HTTP 403 с ключевыми словами успеха в теле трактуются как
	//     успех - §4.5).
	Vend(ctx context.Context, token string, req VendRequest) (*VendResult, error)

	// Requery выполняет шаг 6 Provider-A (GET requery?reference=) - опрос
	// статуса vend-вызова, вернувшего IN_PROGRESS. Provider-B не
	// поддерживает requery и может вернуть ErrProviderHasNoRequery.
	Requery(ctx context.Context, token, vendReference string) (*VendResult, error)
}

// TokenCache кеширует Provider-A bearer-токен процесс-шировано (§4.5, §5
// "process-wide with a lock"). Redis-backed реализация живёт в
// infrastructure/cache; in-process fallback (sync.Mutex-guarded map)
// используется, когда Redis не настроен (локальная разработка, тесты).
type TokenCache interface {
	// Get возвращает закешированный токен для provider, если он ещё не
	// истёк, либо ("", false, nil) если кеш пуст/устарел.
	Get(ctx context.Context, provider string) (token string, found bool, err error)

	// Set кеширует токен с TTL, полученным из ответа провайдера.
	Set(ctx context.Context, provider, token string, ttl time.Duration) error
}
