package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/langchou/evcharge/internal/config"
	"github.com/langchou/evcharge/pkg/currency"
)

// options 全局参数
type options struct {
	currency string
	now      func() time.Time
	validate *validator.Validate
}

// NewRootCmd 创建 evctl 根命令
func NewRootCmd() *cobra.Command {
	return newRootCmd(time.Now)
}

func newRootCmd(now func() time.Time) *cobra.Command {
	opts := &options{now: now, validate: validator.New()}

	defCurrency := currency.DefaultCode
	if cfg, err := config.Load(); err == nil && cfg.Currency != "" {
		defCurrency = cfg.Currency
	}

	root := &cobra.Command{
		Use:           "evctl",
		Short:         "EV charging estimates from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.currency, "currency", defCurrency, "ISO 4217 currency for amounts")

	root.AddCommand(
		newRecommendCmd(),
		newDurationCmd(),
		newWaitCmd(opts),
		newCostCmd(opts),
		newInsightsCmd(opts),
		newVehiclesCmd(),
	)
	return root
}

// Execute 运行 CLI
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) formatter() (*currency.Formatter, error) {
	return currency.New(o.currency)
}

// hour 未指定 (-1) 时取当前小时
func (o *options) hour(h int) int {
	if h < 0 {
		return o.now().Hour()
	}
	return h
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
