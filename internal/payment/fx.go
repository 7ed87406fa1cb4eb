package payment

import (
	"github.com/smallbiznis/hirehub/internal/payment/adapters/midtrans"
	"github.com/smallbiznis/hirehub/internal/payment/repository"
	paymentservice "github.com/smallbiznis/hirehub/internal/payment/service"
	"github.com/smallbiznis/hirehub/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(midtrans.NewFromConfig),
	fx.Provide(paymentservice.NewService),
	fx.Provide(webhook.NewService),
)
