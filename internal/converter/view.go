package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtlprog/coinconv/internal/domain"
	"github.com/mtlprog/coinconv/internal/notify"
)

// DefaultAssetLimit is how many assets the view asks for on load.
const DefaultAssetLimit = 100

// ConversionCompleteTitle is the title of the notification sent by Convert.
const ConversionCompleteTitle = "Conversion complete"

var (
	ErrLoading      = errors.New("asset list is still loading")
	ErrWrongMode    = errors.New("not available in the current mode")
	ErrUnknownFiat  = errors.New("unknown fiat currency")
	ErrUnknownAsset = errors.New("unknown asset")
	ErrNoPicker     = errors.New("no picker is open")
	ErrIncomplete   = errors.New("conversion needs more selections")
)

// Picker identifies which asset picker is open. At most one can be.
type Picker int

const (
	PickerNone Picker = iota
	PickerSource
	PickerTarget
)

func (p Picker) String() string {
	switch p {
	case PickerSource:
		return "from"
	case PickerTarget:
		return "to"
	default:
		return "none"
	}
}

// AssetSource supplies the ordered asset list.
type AssetSource interface {
	FetchTopAssets(ctx context.Context, limit int) ([]domain.Asset, error)
}

// View owns the converter form. It is not safe for concurrent use: one
// frontend session drives one View. Every mutation recomputes the target amount.
type View struct {
	source    AssetSource
	notifier  notify.Notifier
	limit     int
	fiatRates map[string]float64

	assets  []domain.Asset
	state   State
	picker  Picker
	loading bool
}

// NewView creates a view that is loading until Load returns.
// A nil notifier logs notifications.
func NewView(source AssetSource, notifier notify.Notifier, limit int) *View {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	if limit <= 0 {
		limit = DefaultAssetLimit
	}
	return &View{
		source:    source,
		notifier:  notifier,
		limit:     limit,
		fiatRates: domain.FiatRates(),
		state:     InitialState(),
		loading:   true,
	}
}

// Load fetches the asset list and selects its first two entries as source and
// target. A failed fetch is logged and leaves the list empty and selections nil.
func (v *View) Load(ctx context.Context) {
	v.loading = true
	defer func() { v.loading = false }()

	assets, err := v.source.FetchTopAssets(ctx, v.limit)
	if err != nil {
		slog.Warn("converter: failed to load assets", "error", err)
		assets = nil
	}

	v.assets = assets
	v.state.Source = nil
	v.state.Target = nil
	if len(assets) > 0 {
		v.state.Source = assetRef(assets[0])
	}
	if len(assets) > 1 {
		v.state.Target = assetRef(assets[1])
	}
	v.recompute()
}

// Loading reports whether the initial fetch is pending.
func (v *View) Loading() bool { return v.loading }

// State returns a copy of the current form state, including the selected assets.
func (v *View) State() State {
	s := v.state
	if s.Source != nil {
		s.Source = assetRef(*s.Source)
	}
	if s.Target != nil {
		s.Target = assetRef(*s.Target)
	}
	return s
}

// Assets returns the loaded asset list.
func (v *View) Assets() []domain.Asset {
	out := make([]domain.Asset, len(v.assets))
	copy(out, v.assets)
	return out
}

// Picker returns the open picker.
func (v *View) Picker() Picker { return v.picker }

// SetAmount updates the source amount. Input that does not parse is stored
// as typed but leaves the previous target amount in place.
func (v *View) SetAmount(amount string) error {
	if v.loading {
		return ErrLoading
	}
	v.state.SourceAmount = amount
	v.recompute()
	return nil
}

// SelectSource sets the "from" asset by id.
func (v *View) SelectSource(id string) error {
	return v.selectAsset(PickerSource, id)
}

// SelectTarget sets the "to" asset by id.
func (v *View) SelectTarget(id string) error {
	return v.selectAsset(PickerTarget, id)
}

func (v *View) selectAsset(slot Picker, id string) error {
	if v.loading {
		return ErrLoading
	}
	a, ok := domain.FindAsset(v.assets, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	if slot == PickerSource {
		v.state.Source = assetRef(a)
	} else {
		v.state.Target = assetRef(a)
	}
	v.recompute()
	return nil
}

// OpenPicker opens the asset picker for a slot, closing any other.
// The "from" picker only exists in asset-to-asset mode.
func (v *View) OpenPicker(p Picker) error {
	if v.loading {
		return ErrLoading
	}
	if p == PickerSource && v.state.Mode != domain.ModeAssetToAsset {
		return ErrWrongMode
	}
	v.picker = p
	return nil
}

// ClosePicker closes whichever picker is open.
func (v *View) ClosePicker() {
	v.picker = PickerNone
}

// PickerOptions lists the assets matching query for the open picker.
func (v *View) PickerOptions(query string) []domain.Asset {
	if v.picker == PickerNone {
		return nil
	}
	return domain.FilterAssets(v.assets, query)
}

// Choose selects an asset for the open picker's slot and closes the picker.
func (v *View) Choose(id string) error {
	if v.picker == PickerNone {
		return ErrNoPicker
	}
	if err := v.selectAsset(v.picker, id); err != nil {
		return err
	}
	v.picker = PickerNone
	return nil
}

// Swap exchanges the source and target assets and the two amounts.
func (v *View) Swap() error {
	if v.loading {
		return ErrLoading
	}
	v.state.Source, v.state.Target = v.state.Target, v.state.Source
	v.state.SourceAmount, v.state.TargetAmount = v.state.TargetAmount, v.state.SourceAmount
	v.recompute()
	return nil
}

// SetMode switches between asset-to-asset and fiat-to-asset. Selections are kept.
func (v *View) SetMode(m domain.Mode) error {
	if v.loading {
		return ErrLoading
	}
	v.state.Mode = m
	if m != domain.ModeAssetToAsset && v.picker == PickerSource {
		v.picker = PickerNone
	}
	v.recompute()
	return nil
}

// ToggleMode flips the mode.
func (v *View) ToggleMode() error {
	return v.SetMode(v.state.Mode.Toggle())
}

// SetFiat selects the fiat currency; only valid in fiat-to-asset mode.
func (v *View) SetFiat(code string) error {
	if v.loading {
		return ErrLoading
	}
	if v.state.Mode != domain.ModeFiatToAsset {
		return ErrWrongMode
	}
	c, ok := domain.LookupFiat(code)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFiat, code)
	}
	v.state.Fiat = c.Code
	v.recompute()
	return nil
}

// ExchangeRate returns the rate panel, or false when it is hidden.
func (v *View) ExchangeRate() (Rate, bool) {
	if v.loading {
		return Rate{}, false
	}
	return ExchangeRate(v.state, v.fiatRates)
}

// Convert announces the current result. It never changes state.
func (v *View) Convert(ctx context.Context) (string, error) {
	if v.loading {
		return "", ErrLoading
	}
	summary, ok := Summary(v.state)
	if !ok {
		return "", ErrIncomplete
	}
	v.notifier.Notify(ctx, ConversionCompleteTitle, summary)
	return summary, nil
}

func (v *View) recompute() {
	if amount, ok := Compute(v.state, v.fiatRates); ok {
		v.state.TargetAmount = amount
	}
}

func assetRef(a domain.Asset) *domain.Asset {
	return &a
}
