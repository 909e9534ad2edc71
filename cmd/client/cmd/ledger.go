package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"studiosync/internal/domain/ledger"
)

var (
	ledgerClientID  string
	ledgerBookingID string
	ledgerAmount    int64
	ledgerCurrency  string
	reverseReason   string
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Client transaction ledger",
}

var ledgerChargeCmd = &cobra.Command{
	Use:   "charge",
	Short: "Record a debit against a client",
	RunE: func(cmd *cobra.Command, _ []string) error {
		t, err := app.Ledger.Debit(cmd.Context(), ledgerClientID, ledgerBookingID,
			ledgerAmount, ledgerCurrency, actor)
		if err != nil {
			return err
		}
		color.Green("Transaction %s recorded", t.ID)
		fmt.Printf("Reversible until %s\n", t.CanReverseUntil.Format("15:04:05"))
		return nil
	},
}

var ledgerReverseCmd = &cobra.Command{
	Use:   "reverse <transaction-id>",
	Short: "Reverse a transaction inside its correction window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := app.Ledger.Reverse(cmd.Context(), args[0], actor, reverseReason)
		switch {
		case errors.Is(err, ledger.ErrWindowExpired):
			return fmt.Errorf("the %s correction window has passed; record a compensating entry instead", ledger.ReversalWindow)
		case err != nil:
			return err
		}
		color.Green("Transaction %s reversed", t.ID)
		return nil
	},
}

var ledgerBalanceCmd = &cobra.Command{
	Use:   "balance <client-id>",
	Short: "Show a client's net balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		balance, err := app.Ledger.Balance(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Balance: %d\n", balance)
		return nil
	},
}

var ledgerListCmd = &cobra.Command{
	Use:   "list <client-id>",
	Short: "List a client's transactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.Ledger.ListByClient(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, t := range list {
			line := fmt.Sprintf("%s  %10d %s  %s",
				t.ID, t.Amount, t.Currency, t.CreatedAt.Format("2006-01-02 15:04:05"))
			if t.Status == ledger.StatusReversed {
				color.Yellow("%s  (reversed)", line)
				continue
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	ledgerChargeCmd.Flags().StringVar(&ledgerClientID, "client-id", "", "client id")
	ledgerChargeCmd.Flags().StringVar(&ledgerBookingID, "booking-id", "", "related booking id")
	ledgerChargeCmd.Flags().Int64Var(&ledgerAmount, "amount", 0, "amount in minor units")
	ledgerChargeCmd.Flags().StringVar(&ledgerCurrency, "currency", "IDR", "ISO currency code")

	ledgerReverseCmd.Flags().StringVar(&reverseReason, "reason", "", "why the transaction is being reversed")

	ledgerCmd.AddCommand(ledgerChargeCmd, ledgerReverseCmd, ledgerBalanceCmd, ledgerListCmd)
}
