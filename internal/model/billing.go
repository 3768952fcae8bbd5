package model

type InvoiceStatus string

const (
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusFailed   InvoiceStatus = "failed"
	InvoiceStatusRefunded InvoiceStatus = "refunded"
)

// Payable reports whether the payment endpoint accepts the invoice.
func (s InvoiceStatus) Payable() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusFailed
}

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodInsurance    PaymentMethod = "insurance"
	PaymentMethodBankTransfer PaymentMethod = "bank-transfer"
)

type Invoice struct {
	ID            string        `json:"id"`
	Patient       PersonRef     `json:"patientId"`
	Doctor        PersonRef     `json:"doctorId"`
	ServiceName   string        `json:"serviceName"`
	Amount        float64       `json:"amount"`
	Status        InvoiceStatus `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
	TransactionID string        `json:"transactionId,omitempty"`
	CreatedAt     FlexTime      `json:"createdAt"`
}

// PayInvoiceRequest is the patient's payment form.
type PayInvoiceRequest struct {
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=card cash insurance bank-transfer"`
}

// PayInvoicePayload is posted to the backend's pay endpoint.
type PayInvoicePayload struct {
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	TransactionID string        `json:"transactionId"`
}

type TransactionStatus string

const (
	TransactionStatusPaid      TransactionStatus = "paid"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is one row of the doctor's earnings history.
type Transaction struct {
	ID            string            `json:"id"`
	Date          FlexTime          `json:"date"`
	PatientName   string            `json:"patientName"`
	Type          string            `json:"type"`
	Amount        float64           `json:"amount"`
	Status        TransactionStatus `json:"status"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	InvoiceNumber string            `json:"invoiceNumber,omitempty"`
}

type EarningsSummary struct {
	TotalEarnings      float64 `json:"totalEarnings"`
	ThisMonth          float64 `json:"thisMonth"`
	LastMonth          float64 `json:"lastMonth"`
	Growth             float64 `json:"growth"`
	PendingAmount      float64 `json:"pendingAmount"`
	CompletedCount     int     `json:"completedCount"`
	AverageTransaction float64 `json:"averageTransaction"`
}

// EarningsPeriod limits the transactions listed on the dashboard.
type EarningsPeriod string

const (
	PeriodWeek  EarningsPeriod = "week"
	PeriodMonth EarningsPeriod = "month"
	PeriodYear  EarningsPeriod = "year"
	PeriodAll   EarningsPeriod = "all"
)

type EarningsQuery struct {
	Period EarningsPeriod    `form:"period"`
	Status TransactionStatus `form:"status"`
}

// Earnings is the dashboard payload: the summary and the listed transactions.
type Earnings struct {
	Summary      EarningsSummary `json:"summary"`
	Transactions []Transaction   `json:"transactions"`
	// Source is "server" when the backend supplied the summary, else "computed".
	Source string `json:"source"`
}
