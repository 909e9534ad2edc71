package booking

// EffectKind names a side effect dispatched on a lifecycle transition.
type EffectKind string

const (
	EffectCreateFolder     EffectKind = "create_session_folder"
	EffectChargingReminder EffectKind = "equipment_charging_reminder"
	EffectConsumeBattery   EffectKind = "consume_battery"
)

// Effect is a side-effect request produced by a valid transition. External
// execution is best-effort; the state change it accompanies is authoritative.
type Effect struct {
	Kind      EffectKind
	BookingID string
	StaffID   string
}

// Step is one concrete status change of a (possibly composite) transition,
// together with the effects it triggers.
type Step struct {
	From    Status
	To      Status
	Effects []Effect
}

// adjacency is the fixed transition table. A requested transition not listed
// here is rejected outright.
var adjacency = map[Status][]Status{
	StatusInquiry:           {StatusConfirmed},
	StatusConfirmed:         {StatusShooting},
	StatusShooting:          {StatusShootingCompleted},
	StatusShootingCompleted: {StatusSelection},
	StatusSelection:         {StatusEditing},
	StatusEditing:           {StatusReadyToPrint},
	StatusReadyToPrint:      {StatusPrinting},
	StatusPrinting:          {StatusReadyForPickup},
	StatusReadyForPickup:    {StatusDelivered},
	StatusDelivered:         {StatusArchived},
}

// composites are multi-step transitions modeled explicitly in the table, so
// every synthesized intermediate step fires its own effects and lands in the
// status history. Shooting straight to Delivered passes through
// ShootingCompleted first.
var composites = map[Status]map[Status][]Status{
	StatusShooting: {
		StatusDelivered: {StatusShootingCompleted, StatusDelivered},
	},
}

// paymentGated lists target states that require a zero outstanding balance.
var paymentGated = map[Status]bool{
	StatusShooting:  true,
	StatusDelivered: true,
}

func allowed(from, to Status) bool {
	for _, next := range adjacency[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PlanTransition validates a requested transition against the table and
// expands it into its steps. It is pure: no store access, no clock.
//
// Returns ErrInvalidTransition when the move is not in the table and
// ErrPaymentRequired when the target is payment-gated and the booking still
// carries an outstanding balance. An outstanding balance of exactly zero is
// never gated.
func PlanTransition(b *Booking, target Status) ([]Step, error) {
	if b.DeletedAt != nil {
		return nil, ErrDeleted
	}

	var path []Status
	switch {
	case allowed(b.Status, target):
		path = []Status{target}
	case composites[b.Status] != nil && composites[b.Status][target] != nil:
		path = composites[b.Status][target]
	default:
		return nil, ErrInvalidTransition
	}

	if paymentGated[target] && b.Outstanding() > 0 {
		return nil, ErrPaymentRequired
	}

	steps := make([]Step, 0, len(path))
	from := b.Status
	for _, to := range path {
		steps = append(steps, Step{
			From:    from,
			To:      to,
			Effects: effectsFor(b, to),
		})
		from = to
	}
	return steps, nil
}

func effectsFor(b *Booking, to Status) []Effect {
	var effects []Effect
	switch to {
	case StatusShootingCompleted:
		effects = append(effects, Effect{Kind: EffectCreateFolder, BookingID: b.ID})
	case StatusEditing:
		effects = append(effects, Effect{Kind: EffectChargingReminder, BookingID: b.ID})
	case StatusSelection:
		if b.Package != PackageRental {
			effects = append(effects, Effect{
				Kind:      EffectConsumeBattery,
				BookingID: b.ID,
				StaffID:   b.AssignedStaff,
			})
		}
	}
	return effects
}
