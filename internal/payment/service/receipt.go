package service

import (
	"context"
	"errors"

	"github.com/smallbiznis/hirehub/internal/payment/domain"
	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
	"github.com/smallbiznis/hirehub/internal/providers/pdf"
	"github.com/smallbiznis/hirehub/pkg/money"
	"go.uber.org/zap"
)

const receiptDateLayout = "2006-01-02"

// RenderReceipt renders a PDF receipt for a settled payment.
func (s *Service) RenderReceipt(ctx context.Context, orderID string) ([]byte, error) {
	payment, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !payment.Status.IsSettled() {
		return nil, domain.ErrPaymentNotSettled
	}

	plan, err := s.plans.Resolve(ctx, payment.PlanID.String())
	if err != nil && !errors.Is(err, plandomain.ErrPlanNotFound) {
		return nil, err
	}

	data := pdf.ReceiptData{
		IssuerName: s.cfg.AppName,
		OrderID:    payment.OrderID,
		Total:      money.Format(payment.GrossAmount, payment.Currency),
	}
	paidAt := payment.UpdatedAt
	if payment.SettledAt != nil {
		paidAt = *payment.SettledAt
	}
	data.DatePaid = paidAt.Format(receiptDateLayout)
	if payment.Method != nil {
		data.Method = *payment.Method
	}

	description := payment.PlanID.String()
	if plan != nil {
		description = plan.Name
	}
	data.Items = []pdf.ReceiptItem{{
		Description: description,
		Qty:         1,
		UnitPrice:   data.Total,
		Amount:      data.Total,
	}}

	if payment.EmployerID != nil {
		employer, err := s.employers.GetByID(ctx, *payment.EmployerID)
		if err != nil {
			return nil, err
		}
		if employer != nil {
			data.BillToName = employer.LegalName
			if data.BillToName == "" {
				data.BillToName = employer.DisplayName
			}
			owner, err := s.employers.GetOwner(ctx, employer.ID)
			if err != nil {
				return nil, err
			}
			if owner != nil {
				data.BillToEmail = owner.Email
			}
		}
		sub, err := s.subscriptions.FindByOrderID(ctx, payment.OrderID)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			data.ServicePeriod = sub.CurrentPeriodStart.Format(receiptDateLayout) + " to " + sub.CurrentPeriodEnd.Format(receiptDateLayout)
		}
	}

	out, err := s.pdf.GenerateReceipt(ctx, data)
	if err != nil {
		s.log.Error("failed to render receipt", zap.String("order_id", payment.OrderID), zap.Error(err))
		return nil, err
	}
	return out, nil
}
