package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"studiosync/internal/domain/booking"
)

var addonAmount int64

var addonCmd = &cobra.Command{
	Use:   "addon",
	Short: "Manage mid-session add-on charges",
}

var addonRequestCmd = &cobra.Command{
	Use:   "request <booking-id>",
	Short: "Request an add-on charge for an in-progress session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Bookings.RequestAddOn(cmd.Context(), booking.AddOnRequest{
			BookingID:   args[0],
			Amount:      addonAmount,
			RequestedBy: actor,
		})
		if err != nil {
			return err
		}
		color.Green("Add-on %s requested (%d, pending approval)", a.ID, a.Amount)
		return nil
	},
}

var addonApproveCmd = &cobra.Command{
	Use:   "approve <addon-id>",
	Short: "Approve a pending add-on and fold it into the booking total",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Bookings.ApproveAddOn(cmd.Context(), args[0], actor)
		if err != nil {
			return err
		}
		color.Green("Add-on %s approved; booking total raised by %d", a.ID, a.Amount)
		return nil
	},
}

var addonRejectCmd = &cobra.Command{
	Use:   "reject <addon-id>",
	Short: "Reject a pending add-on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Bookings.RejectAddOn(cmd.Context(), args[0], actor)
		if err != nil {
			return err
		}
		color.Yellow("Add-on %s rejected", a.ID)
		return nil
	},
}

func init() {
	addonRequestCmd.Flags().Int64Var(&addonAmount, "amount", 0, "add-on amount in minor units")
	addonCmd.AddCommand(addonRequestCmd, addonApproveCmd, addonRejectCmd)
}
