package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"studiosync/internal/domain/booking"
)

var (
	clientID    string
	clientName  string
	packageKind string
	totalAmount int64
	currency    string
	shootDate   string
	staffID     string
	statusFlag  string
	fromToday   bool
	payAmount   int64
)

var bookingCmd = &cobra.Command{
	Use:   "booking",
	Short: "Manage studio bookings",
}

var bookingCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new booking inquiry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		date, err := time.Parse("2006-01-02", shootDate)
		if err != nil {
			return fmt.Errorf("parse shoot date: %w", err)
		}
		b, err := app.Bookings.Create(cmd.Context(), booking.CreateRequest{
			ClientID:      clientID,
			ClientName:    clientName,
			Package:       booking.PackageKind(packageKind),
			TotalAmount:   totalAmount,
			Currency:      currency,
			ShootDate:     date,
			AssignedStaff: staffID,
		})
		if err != nil {
			return err
		}
		color.Green("Booking %s created for %s (%s on %s)",
			b.ID, b.ClientName, b.Package, b.ShootDate.Format("2006-01-02"))
		return nil
	},
}

var bookingShowCmd = &cobra.Command{
	Use:   "show <booking-id>",
	Short: "Show one booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := app.Bookings.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printBooking(b)
		return nil
	},
}

var bookingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := booking.Filter{Status: booking.Status(statusFlag)}
		if fromToday {
			// Front-desk view: today-or-future shoots only.
			now := time.Now()
			f.ShootDateFrom = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		}
		list, err := app.Bookings.List(cmd.Context(), f)
		if err != nil {
			return err
		}
		for _, b := range list {
			fmt.Printf("%s  %-20s %-20s %s\n",
				b.ID, b.ClientName, b.Status, b.ShootDate.Format("2006-01-02"))
		}
		fmt.Printf("%d booking(s)\n", len(list))
		return nil
	},
}

var bookingTransitionCmd = &cobra.Command{
	Use:   "transition <booking-id> <status>",
	Short: "Move a booking through its lifecycle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := app.Bookings.Transition(cmd.Context(), args[0], booking.Status(args[1]), actor)

		var sideEffectErr *booking.SideEffectError
		switch {
		case errors.As(err, &sideEffectErr):
			// The transition itself is committed; only the effect needs
			// a manual retry.
			color.Green("Booking is now %s", b.Status)
			color.Yellow("Side effect %s failed and was queued for manual retry: %v",
				sideEffectErr.Effect, sideEffectErr.Err)
			return nil
		case errors.Is(err, booking.ErrPaymentRequired):
			return fmt.Errorf("outstanding balance must be settled before %s (use booking pay)", args[1])
		case err != nil:
			return err
		}
		color.Green("Booking is now %s", b.Status)
		if b.FolderPath != nil {
			fmt.Printf("Session folder: %s\n", *b.FolderPath)
		}
		return nil
	},
}

var bookingPayCmd = &cobra.Command{
	Use:   "pay <booking-id>",
	Short: "Record a payment against a booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := app.Bookings.RecordPayment(cmd.Context(), args[0], payAmount, actor)
		if err != nil {
			return err
		}
		color.Green("Payment recorded; outstanding balance is now %d %s", b.Outstanding(), b.Currency)
		return nil
	},
}

var bookingDeleteCmd = &cobra.Command{
	Use:   "delete <booking-id>",
	Short: "Soft-delete a booking (restorable for 30 days)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Bookings.SoftDelete(cmd.Context(), args[0]); err != nil {
			return err
		}
		color.Green("Booking %s deleted", args[0])
		return nil
	},
}

func printBooking(b *booking.Booking) {
	fmt.Printf("ID:          %s\n", b.ID)
	fmt.Printf("Client:      %s (%s)\n", b.ClientName, b.ClientID)
	fmt.Printf("Status:      %s\n", b.Status)
	fmt.Printf("Package:     %s\n", b.Package)
	fmt.Printf("Shoot date:  %s\n", b.ShootDate.Format("2006-01-02"))
	fmt.Printf("Total:       %d %s\n", b.TotalAmount, b.Currency)
	fmt.Printf("Paid:        %d %s\n", b.PaidAmount, b.Currency)
	if b.FolderPath != nil {
		fmt.Printf("Folder:      %s\n", *b.FolderPath)
	}
	if b.DeletedAt != nil {
		color.Yellow("Deleted at:  %s", b.DeletedAt.Format(time.RFC3339))
	}
	fmt.Println("History:")
	for _, h := range b.StatusHistory {
		fmt.Printf("  %s  %-20s %s\n", h.At.Format(time.RFC3339), h.Status, h.Actor)
	}
}

func init() {
	bookingCreateCmd.Flags().StringVar(&clientID, "client-id", "", "client id")
	bookingCreateCmd.Flags().StringVar(&clientName, "client-name", "", "client name")
	bookingCreateCmd.Flags().StringVar(&packageKind, "package", "studio", "package kind (studio|rental)")
	bookingCreateCmd.Flags().Int64Var(&totalAmount, "total", 0, "total amount in minor units")
	bookingCreateCmd.Flags().StringVar(&currency, "currency", "IDR", "ISO currency code")
	bookingCreateCmd.Flags().StringVar(&shootDate, "date", "", "shoot date (YYYY-MM-DD)")
	bookingCreateCmd.Flags().StringVar(&staffID, "staff", "", "assigned staff id")

	bookingListCmd.Flags().StringVar(&statusFlag, "status", "", "filter by status")
	bookingListCmd.Flags().BoolVar(&fromToday, "upcoming", false, "only today-or-future shoots")

	bookingPayCmd.Flags().Int64Var(&payAmount, "amount", 0, "payment amount in minor units")

	bookingCmd.AddCommand(bookingCreateCmd, bookingShowCmd, bookingListCmd,
		bookingTransitionCmd, bookingPayCmd, bookingDeleteCmd)
}
