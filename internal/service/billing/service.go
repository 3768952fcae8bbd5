package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/pkg/apiclient"
	apperrors "github.com/Jawadyyy/healthmate-portal/pkg/errors"
	"github.com/Jawadyyy/healthmate-portal/pkg/logger"
	"github.com/Jawadyyy/healthmate-portal/pkg/validator"
)

const (
	SourceServer   = "server"
	SourceComputed = "computed"
)

var billingMessages = validator.Messages{
	"PayInvoiceRequest.PaymentMethod.required": "Select a payment method",
	"PayInvoiceRequest.PaymentMethod.oneof":    "Payment method must be card, cash, insurance or bank-transfer",
}

// Service runs the earnings dashboard and the invoice payment flow.
type Service struct {
	api       *apiclient.Client
	validator validator.Validator
	log       *logger.Logger
	now       func() time.Time
	newRef    func() string
}

func NewService(api *apiclient.Client, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		api:       api,
		validator: validator.New(validator.WithMessages(billingMessages)),
		log:       log,
		now:       time.Now,
		newRef:    func() string { return "HM-" + strings.ToUpper(uuid.NewString()) },
	}
}

type earningsPayload struct {
	Summary      *model.EarningsSummary `json:"summary"`
	Transactions []model.Transaction    `json:"transactions"`
}

// Earnings returns the doctor's dashboard. The backend summary is used when
// the response carries one; otherwise it is computed from all transactions.
func (s *Service) Earnings(ctx context.Context, q model.EarningsQuery) (*model.Earnings, error) {
	switch q.Period {
	case "", model.PeriodWeek, model.PeriodMonth, model.PeriodYear, model.PeriodAll:
	default:
		return nil, apperrors.Validation("Period must be week, month, year or all")
	}

	var raw json.RawMessage
	if err := s.api.Get(ctx, "/billing/earnings", &raw); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to get earnings: %w", err))
	}

	var payload earningsPayload
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &payload.Transactions); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to decode transactions: %w", err))
		}
	} else if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to decode earnings: %w", err))
		}
	}

	now := s.now()
	out := &model.Earnings{
		Transactions: FilterTransactions(payload.Transactions, q, now),
	}
	if payload.Summary != nil {
		out.Summary = *payload.Summary
		out.Source = SourceServer
	} else {
		out.Summary = Summarize(payload.Transactions, now)
		out.Source = SourceComputed
	}
	return out, nil
}

func (s *Service) Invoices(ctx context.Context) ([]model.Invoice, error) {
	var raw json.RawMessage
	if err := s.api.Get(ctx, "/billing/invoice/patient/me", &raw); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to list invoices: %w", err))
	}
	var invoices []model.Invoice
	if err := apiclient.DecodeList(raw, &invoices, "invoices"); err != nil {
		return nil, apperrors.Internal(err)
	}
	return invoices, nil
}

func (s *Service) Invoice(ctx context.Context, id string) (*model.Invoice, error) {
	var inv model.Invoice
	if err := s.api.Get(ctx, "/billing/invoice/"+url.PathEscape(id), &inv); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to get invoice: %w", err))
	}
	return &inv, nil
}

// Pay settles a pending or failed invoice. The transaction id sent along is
// a gateway-generated client reference; the invoice the backend returns is
// the record of what was actually charged.
func (s *Service) Pay(ctx context.Context, id string, req *model.PayInvoiceRequest) (*model.Invoice, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	inv, err := s.Invoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.Status.Payable() {
		return nil, apperrors.Validation(fmt.Sprintf("A %s invoice cannot be paid", inv.Status))
	}

	payload := model.PayInvoicePayload{
		PaymentMethod: req.PaymentMethod,
		TransactionID: s.newRef(),
	}

	var paid model.Invoice
	if err := s.api.Post(ctx, "/billing/invoice/"+url.PathEscape(id)+"/pay", payload, &paid); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to pay invoice: %w", err))
	}

	s.log.Info("invoice paid", "invoice_id", id, "payment_method", string(req.PaymentMethod), "reference", payload.TransactionID)

	if paid.ID == "" {
		return s.Invoice(ctx, id)
	}
	return &paid, nil
}
