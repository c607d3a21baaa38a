package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/langchou/evcharge/internal/estimator"
)

func newRecommendCmd() *cobra.Command {
	var (
		battery, minutes float64
		urgency          string
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a charger type",
		RunE: func(cmd *cobra.Command, args []string) error {
			if battery < 0 || battery > 100 {
				return fmt.Errorf("battery must be within 0-100, got %v", battery)
			}
			return writeJSON(cmd.OutOrStdout(), estimator.Recommend(battery, minutes, urgency))
		},
	}
	cmd.Flags().Float64Var(&battery, "battery", 50, "current battery percent")
	cmd.Flags().Float64Var(&minutes, "time", estimator.DefaultTimeAvailableMin, "minutes available")
	cmd.Flags().StringVar(&urgency, "urgency", estimator.UrgencyNormal, "normal or high")
	return cmd
}

func newDurationCmd() *cobra.Command {
	var (
		vehicle, charger          string
		capacity, current, target float64
	)
	cmd := &cobra.Command{
		Use:   "duration",
		Short: "Estimate charging time and booking slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var est estimator.DurationEstimate
			if capacity > 0 {
				est = estimator.EstimateSlotDurationWithCapacity(capacity, current, target, charger)
			} else {
				est = estimator.EstimateSlotDuration(vehicle, current, target, charger)
			}
			return writeJSON(cmd.OutOrStdout(), est)
		},
	}
	cmd.Flags().StringVar(&vehicle, "vehicle", estimator.DefaultVehicleType, "vehicle type, e.g. \"Tesla Model 3\"")
	cmd.Flags().Float64Var(&capacity, "capacity", 0, "battery capacity in kWh, overrides --vehicle")
	cmd.Flags().Float64Var(&current, "current", 20, "current battery percent")
	cmd.Flags().Float64Var(&target, "target", 80, "target battery percent")
	cmd.Flags().StringVar(&charger, "charger", estimator.ChargerNormalAC, "charger type")
	return cmd
}

func newWaitCmd(opts *options) *cobra.Command {
	var in estimator.WaitInput
	var hour int
	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Estimate queue wait at a station",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.CurrentHour = opts.hour(hour)
			if err := opts.validate.Struct(in); err != nil {
				return fmt.Errorf("invalid input: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), estimator.EstimateWaitTime(in))
		},
	}
	cmd.Flags().StringVar(&in.StationID, "station", "", "station id")
	cmd.Flags().IntVar(&in.CurrentQueueLength, "queue", 0, "vehicles waiting")
	cmd.Flags().IntVar(&in.BusyPorts, "busy", 0, "busy ports")
	cmd.Flags().IntVar(&in.TotalPorts, "total", estimator.DefaultTotalPorts, "total ports")
	cmd.Flags().IntVar(&hour, "hour", -1, "hour of day (default: now)")
	return cmd
}

func newCostCmd(opts *options) *cobra.Command {
	var in estimator.CostInput
	var hour int
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Estimate peak/off-peak charging cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.formatter()
			if err != nil {
				return err
			}
			in.CurrentHour = opts.hour(hour)
			if err := opts.validate.Struct(in); err != nil {
				return fmt.Errorf("invalid input: %w", err)
			}

			b := estimator.EstimateCostWith(f, in)
			return writeJSON(cmd.OutOrStdout(), struct {
				estimator.CostBreakdown
				Currency       string `json:"currency"`
				FormattedTotal string `json:"formatted_total"`
			}{b, f.Code(), f.Format(b.TotalCost)})
		},
	}
	cmd.Flags().Float64Var(&in.EnergyKwh, "energy", 0, "energy in kWh")
	cmd.Flags().Float64Var(&in.BasePricePerKwh, "base", 0, "off-peak price per kWh")
	cmd.Flags().Float64Var(&in.PeakPricePerKwh, "peak", 0, "peak price per kWh")
	cmd.Flags().Float64Var(&in.DurationMinutes, "duration", estimator.DefaultDurationMinutes, "session length in minutes")
	cmd.Flags().IntVar(&in.PeakStartHour, "peak-start", estimator.DefaultPeakStartHour, "peak window start hour")
	cmd.Flags().IntVar(&in.PeakEndHour, "peak-end", estimator.DefaultPeakEndHour, "peak window end hour (exclusive)")
	cmd.Flags().IntVar(&hour, "hour", -1, "start hour (default: now)")
	return cmd
}

func newInsightsCmd(opts *options) *cobra.Command {
	var (
		vehicle                   string
		capacity, current, target float64
		load                      estimator.StationLoad
	)
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Recommendation, duration and wait in one report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), estimator.Insights(vehicle, capacity, current, target, load, opts.now()))
		},
	}
	cmd.Flags().StringVar(&vehicle, "vehicle", estimator.DefaultVehicleType, "vehicle type")
	cmd.Flags().Float64Var(&capacity, "capacity", 0, "battery capacity in kWh, overrides --vehicle")
	cmd.Flags().Float64Var(&current, "current", 20, "current battery percent")
	cmd.Flags().Float64Var(&target, "target", 80, "target battery percent")
	cmd.Flags().StringVar(&load.StationID, "station", "", "station id")
	cmd.Flags().IntVar(&load.QueueLength, "queue", 0, "vehicles waiting")
	cmd.Flags().IntVar(&load.BusyPorts, "busy", 0, "busy ports")
	cmd.Flags().IntVar(&load.TotalPorts, "total", estimator.DefaultTotalPorts, "total ports")
	return cmd
}

func newVehiclesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vehicles",
		Short: "List vehicle types with known battery capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, v := range estimator.VehicleTypes() {
				if _, err := fmt.Fprintf(w, "%-24s %5.1f kWh\n", v, estimator.BatteryCapacity(v)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
