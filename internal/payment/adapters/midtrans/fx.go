package midtrans

import (
	"github.com/smallbiznis/hirehub/internal/config"
	"github.com/smallbiznis/hirehub/internal/payment/domain"
)

// NewFromConfig builds the gateway client from MIDTRANS_* settings.
func NewFromConfig(cfg config.Config) (domain.Gateway, error) {
	return NewClient(Config{
		ServerKey:    cfg.Midtrans.ServerKey,
		IsProduction: cfg.Midtrans.IsProduction,
		BaseURL:      cfg.Midtrans.BaseURL,
		Timeout:      cfg.Midtrans.Timeout,
	}, nil)
}
