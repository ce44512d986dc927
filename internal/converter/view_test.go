package converter

import (
	"context"
	"errors"
	"testing"

	"github.com/mtlprog/coinconv/internal/domain"
)

type mockSource struct {
	assets    []domain.Asset
	err       error
	lastLimit int
}

func (m *mockSource) FetchTopAssets(_ context.Context, limit int) ([]domain.Asset, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.assets, nil
}

type recordedNotification struct {
	title, description string
}

type mockNotifier struct {
	sent []recordedNotification
}

func (m *mockNotifier) Notify(_ context.Context, title, description string) {
	m.sent = append(m.sent, recordedNotification{title, description})
}

func loadedView(t *testing.T, assets ...domain.Asset) (*View, *mockNotifier) {
	t.Helper()
	n := &mockNotifier{}
	v := NewView(&mockSource{assets: assets}, n, 0)
	v.Load(context.Background())
	return v, n
}

func TestNewViewIsLoading(t *testing.T) {
	v := NewView(&mockSource{}, nil, 0)

	if !v.Loading() {
		t.Fatal("view should be loading before Load")
	}
	if err := v.SetAmount("2"); !errors.Is(err, ErrLoading) {
		t.Errorf("SetAmount err = %v, want ErrLoading", err)
	}
	if err := v.Swap(); !errors.Is(err, ErrLoading) {
		t.Errorf("Swap err = %v, want ErrLoading", err)
	}
	if err := v.OpenPicker(PickerTarget); !errors.Is(err, ErrLoading) {
		t.Errorf("OpenPicker err = %v, want ErrLoading", err)
	}
	if _, err := v.Convert(context.Background()); !errors.Is(err, ErrLoading) {
		t.Errorf("Convert err = %v, want ErrLoading", err)
	}
	if _, ok := v.ExchangeRate(); ok {
		t.Error("rate panel should be hidden while loading")
	}
}

func TestLoadDefaultsFirstTwoAssets(t *testing.T) {
	src := &mockSource{assets: []domain.Asset{btc, eth, usdt}}
	v := NewView(src, nil, 0)
	v.Load(context.Background())

	if v.Loading() {
		t.Fatal("view should not be loading after Load")
	}
	if src.lastLimit != DefaultAssetLimit {
		t.Errorf("requested limit = %d, want %d", src.lastLimit, DefaultAssetLimit)
	}

	s := v.State()
	if s.Source == nil || s.Source.ID != "bitcoin" {
		t.Errorf("Source = %+v, want bitcoin", s.Source)
	}
	if s.Target == nil || s.Target.ID != "ethereum" {
		t.Errorf("Target = %+v, want ethereum", s.Target)
	}
	if s.TargetAmount != "20.00000000" {
		t.Errorf("TargetAmount = %q, want 20.00000000", s.TargetAmount)
	}
	if len(v.Assets()) != 3 {
		t.Errorf("len(Assets) = %d, want 3", len(v.Assets()))
	}
}

func TestLoadFailureLeavesEmptyList(t *testing.T) {
	v := NewView(&mockSource{err: errors.New("offline")}, nil, 10)
	v.Load(context.Background())

	if v.Loading() {
		t.Error("view should stop loading after a failed fetch")
	}
	s := v.State()
	if s.Source != nil || s.Target != nil {
		t.Errorf("selections = (%v, %v), want nil", s.Source, s.Target)
	}
	if len(v.Assets()) != 0 {
		t.Errorf("len(Assets) = %d, want 0", len(v.Assets()))
	}
	if s.TargetAmount != "0" {
		t.Errorf("TargetAmount = %q, want initial 0", s.TargetAmount)
	}
}

func TestLoadSingleAsset(t *testing.T) {
	v, _ := loadedView(t, btc)
	s := v.State()
	if s.Source == nil || s.Target != nil {
		t.Errorf("selections = (%v, %v), want (bitcoin, nil)", s.Source, s.Target)
	}
}

func TestStateIsDetached(t *testing.T) {
	v, _ := loadedView(t, btc, eth)

	s := v.State()
	s.Source.PriceUSD = 1
	s.Target.ID = "tampered"

	if err := v.SetAmount("1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := v.State()
	if got.Source.PriceUSD != 50000 || got.Target.ID != "ethereum" {
		t.Errorf("view state changed through a returned State: %+v, %+v", got.Source, got.Target)
	}
	if got.TargetAmount != "20.00000000" {
		t.Errorf("TargetAmount = %q, want 20.00000000", got.TargetAmount)
	}
}

func TestSetAmountRecomputes(t *testing.T) {
	v, _ := loadedView(t, btc, eth)

	if err := v.SetAmount("2.5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := v.State().TargetAmount; got != "50.00000000" {
		t.Errorf("TargetAmount = %q, want 50.00000000", got)
	}
}

func TestUnparseableAmountKeepsPreviousResult(t *testing.T) {
	v, _ := loadedView(t, btc, eth)
	before := v.State().TargetAmount

	for _, input := range []string{"", "abc", "1..2"} {
		if err := v.SetAmount(input); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := v.State()
		if s.TargetAmount != before {
			t.Errorf("SetAmount(%q): TargetAmount = %q, want %q", input, s.TargetAmount, before)
		}
		if s.SourceAmount != input {
			t.Errorf("SourceAmount = %q, want the typed %q", s.SourceAmount, input)
		}
	}
}

func TestSameAssetIsOneToOne(t *testing.T) {
	v, _ := loadedView(t, btc, eth)
	if err := v.SelectTarget("bitcoin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.SetAmount("1.23456789"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := v.State().TargetAmount; got != "1.23456789" {
		t.Errorf("TargetAmount = %q, want 1.23456789", got)
	}
	r, _ := v.ExchangeRate()
	if r.Unit != "1 BTC = 1.00000000 BTC" {
		t.Errorf("Unit = %q", r.Unit)
	}
}

func TestSelectUnknownAsset(t *testing.T) {
	v, _ := loadedView(t, btc, eth)
	if err := v.SelectSource("dogecoin"); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("err = %v, want ErrUnknownAsset", err)
	}
	if v.State().Source.ID != "bitcoin" {
		t.Error("failed selection must not change the source")
	}
}

func TestSwapTwiceRestores(t *testing.T) {
	v, _ := loadedView(t, btc, eth, usdt)
	if err := v.SetAmount("1.00000000"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := v.State()

	if err := v.Swap(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mid := v.State()
	if mid.Source.ID != "ethereum" || mid.Target.ID != "bitcoin" {
		t.Errorf("after one swap: %s -> %s", mid.Source.ID, mid.Target.ID)
	}
	if mid.SourceAmount != "20.00000000" || mid.TargetAmount != "1.00000000" {
		t.Errorf("after one swap amounts = (%q, %q)", mid.SourceAmount, mid.TargetAmount)
	}

	if err := v.Swap(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := v.State()
	if after.Source.ID != before.Source.ID || after.Target.ID != before.Target.ID {
		t.Errorf("selections not restored: %s -> %s", after.Source.ID, after.Target.ID)
	}
	if after.SourceAmount != before.SourceAmount || after.TargetAmount != before.TargetAmount {
		t.Errorf("amounts = (%q, %q), want (%q, %q)",
			after.SourceAmount, after.TargetAmount, before.SourceAmount, before.TargetAmount)
	}
}

func TestSwapTwiceRestoresUnformattedAmountNumerically(t *testing.T) {
	v, _ := loadedView(t, btc, eth)

	_ = v.Swap()
	_ = v.Swap()

	s := v.State()
	amount, ok := domain.ParseAmount(s.SourceAmount)
	if !ok || amount != 1 {
		t.Errorf("SourceAmount = %q, want a value equal to 1", s.SourceAmount)
	}
	if s.TargetAmount != "20.00000000" {
		t.Errorf("TargetAmount = %q, want 20.00000000", s.TargetAmount)
	}
}

func TestSwapWithNilSelections(t *testing.T) {
	v, _ := loadedView(t)
	if err := v.Swap(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := v.State()
	if s.Source != nil || s.Target != nil {
		t.Error("swapping nil selections should keep them nil")
	}
}

func TestSetModeKeepsSelections(t *testing.T) {
	v, _ := loadedView(t, btc, eth)

	if err := v.SetMode(domain.ModeFiatToAsset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := v.State()
	if s.Source == nil || s.Source.ID != "bitcoin" || s.Target.ID != "ethereum" {
		t.Error("mode switch must not clear selections")
	}
	// 1 USD / 2500
	if s.TargetAmount != "0.00040000" {
		t.Errorf("TargetAmount = %q, want 0.00040000", s.TargetAmount)
	}

	if err := v.ToggleMode(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := v.State().TargetAmount; got != "20.00000000" {
		t.Errorf("TargetAmount after toggling back = %q, want 20.00000000", got)
	}
}

func TestSetModeWithNoSelections(t *testing.T) {
	v, _ := loadedView(t)
	for _, m := range []domain.Mode{domain.ModeFiatToAsset, domain.ModeAssetToAsset, domain.ModeFiatToAsset} {
		if err := v.SetMode(m); err != nil {
			t.Fatalf("SetMode(%s): %v", m, err)
		}
	}
	if got := v.State().TargetAmount; got != "0" {
		t.Errorf("TargetAmount = %q, want 0", got)
	}
}

func TestFiatToAsset(t *testing.T) {
	v, _ := loadedView(t, eth, btc)
	if err := v.SetMode(domain.ModeFiatToAsset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := v.State().TargetAmount; got != "0.00002000" {
		t.Errorf("1 USD -> BTC = %q, want 0.00002000", got)
	}

	if err := v.SetFiat("inr"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := v.State(); s.Fiat != "INR" || s.TargetAmount != "0.00168400" {
		t.Errorf("state = fiat %q amount %q, want INR 0.00168400", s.Fiat, s.TargetAmount)
	}

	r, ok := v.ExchangeRate()
	if !ok || r.Unit != "1 INR = 0.00168400 BTC" || r.USD != "1 BTC = $50,000 USD" {
		t.Errorf("rate = %+v, %v", r, ok)
	}
}

func TestSetFiatErrors(t *testing.T) {
	v, _ := loadedView(t, btc, eth)

	if err := v.SetFiat("EUR"); !errors.Is(err, ErrWrongMode) {
		t.Errorf("err = %v, want ErrWrongMode", err)
	}

	_ = v.SetMode(domain.ModeFiatToAsset)
	if err := v.SetFiat("XYZ"); !errors.Is(err, ErrUnknownFiat) {
		t.Errorf("err = %v, want ErrUnknownFiat", err)
	}
	if v.State().Fiat != domain.DefaultFiat {
		t.Error("failed fiat selection must not change the fiat")
	}
}

func TestPickerLifecycle(t *testing.T) {
	v, _ := loadedView(t, btc, eth, usdt)

	if v.PickerOptions("") != nil {
		t.Error("no options while every picker is closed")
	}
	if err := v.Choose("tether"); !errors.Is(err, ErrNoPicker) {
		t.Errorf("err = %v, want ErrNoPicker", err)
	}

	if err := v.OpenPicker(PickerSource); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.OpenPicker(PickerTarget); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Picker() != PickerTarget {
		t.Errorf("Picker = %v, want to (opening one closes the other)", v.Picker())
	}

	opts := v.PickerOptions("TeTh")
	if len(opts) != 1 || opts[0].ID != "tether" {
		t.Errorf("options = %+v, want [tether]", opts)
	}

	if err := v.Choose("tether"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Picker() != PickerNone {
		t.Error("choosing should close the picker")
	}
	if s := v.State(); s.Target.ID != "tether" || s.TargetAmount != "50000.00000000" {
		t.Errorf("state after choose = %s, %q", s.Target.ID, s.TargetAmount)
	}
}

func TestChooseUnknownKeepsPickerOpen(t *testing.T) {
	v, _ := loadedView(t, btc, eth)
	_ = v.OpenPicker(PickerSource)

	if err := v.Choose("nope"); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("err = %v, want ErrUnknownAsset", err)
	}
	if v.Picker() != PickerSource {
		t.Error("picker should stay open after a failed choice")
	}
	v.ClosePicker()
	if v.Picker() != PickerNone {
		t.Error("ClosePicker should close the picker")
	}
}

func TestSourcePickerOnlyInAssetMode(t *testing.T) {
	v, _ := loadedView(t, btc, eth)
	_ = v.OpenPicker(PickerSource)

	_ = v.SetMode(domain.ModeFiatToAsset)
	if v.Picker() != PickerNone {
		t.Error("switching to fiat mode should close the from picker")
	}
	if err := v.OpenPicker(PickerSource); !errors.Is(err, ErrWrongMode) {
		t.Errorf("err = %v, want ErrWrongMode", err)
	}
	if err := v.OpenPicker(PickerTarget); err != nil {
		t.Errorf("to picker should open in fiat mode: %v", err)
	}
}

func TestConvertNotifies(t *testing.T) {
	v, n := loadedView(t, btc, eth)
	before := v.State()

	summary, err := v.Convert(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "1 BTC = 20.00000000 ETH" {
		t.Errorf("summary = %q", summary)
	}
	if len(n.sent) != 1 || n.sent[0].title != ConversionCompleteTitle || n.sent[0].description != summary {
		t.Errorf("notifications = %+v", n.sent)
	}
	if v.State() != before {
		t.Error("Convert must not change state")
	}

	_ = v.SetMode(domain.ModeFiatToAsset)
	_ = v.SetFiat("EUR")
	summary, _ = v.Convert(context.Background())
	if summary != "1 EUR = 0.00036800 ETH" {
		t.Errorf("fiat summary = %q", summary)
	}
}

func TestConvertIncomplete(t *testing.T) {
	v, n := loadedView(t)
	if _, err := v.Convert(context.Background()); !errors.Is(err, ErrIncomplete) {
		t.Errorf("err = %v, want ErrIncomplete", err)
	}
	if len(n.sent) != 0 {
		t.Error("no notification without selections")
	}
}
