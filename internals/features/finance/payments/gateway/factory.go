package gateway

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"schoolpay_backend/internals/configs"
)

// New memilih provider dari PAYMENT_GATEWAY.
func New(cfg configs.GatewayConfig, sessionTTL time.Duration, log *zap.SugaredLogger) (Provider, error) {
	switch cfg.Provider {
	case "", ProviderPayMongo:
		return NewPayMongo(PayMongoConfig{
			SecretKey:     cfg.PayMongoSecretKey,
			PublicKey:     cfg.PayMongoPublicKey,
			WebhookSecret: cfg.PayMongoWebhookSecret,
			LiveMode:      cfg.PayMongoLiveMode,
			BaseURL:       cfg.PayMongoBaseURL,
			Timeout:       cfg.Timeout,
			RetryCount:    cfg.RetryCount,
		}, log), nil
	case ProviderMidtrans:
		return NewMidtrans(MidtransConfig{
			ServerKey:     cfg.MidtransServerKey,
			UseProduction: cfg.MidtransUseProd,
			SessionTTL:    sessionTTL,
		}, log), nil
	default:
		return nil, fmt.Errorf("payment gateway %q tidak dikenal", cfg.Provider)
	}
}
