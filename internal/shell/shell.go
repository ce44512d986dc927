package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mtlprog/coinconv/internal/converter"
	"github.com/mtlprog/coinconv/internal/domain"
)

const prompt = "coinconv> "

const help = `Commands:
  show                 Print the form
  amount <value>       Set the amount to convert
  from <id>            Select the source asset
  to <id>              Select the target asset
  swap                 Swap source and target
  mode [asset|fiat]    Switch conversion mode (toggles without argument)
  fiat <code>          Select the fiat currency (fiat mode)
  pick from|to         Open an asset picker
  search [query]       List picker options matching query
  choose <id>          Choose an asset in the open picker
  close                Close the open picker
  assets [query]       List loaded assets
  currencies           List fiat currencies
  rate                 Print the exchange rate
  convert              Run the conversion
  help                 Show this help
  quit                 Exit
`

// Shell drives a converter view from line-oriented input.
type Shell struct {
	view *converter.View
	in   io.Reader
	out  io.Writer
}

// New creates a shell over a view. The view is loaded by Run.
func New(view *converter.View, in io.Reader, out io.Writer) *Shell {
	return &Shell{view: view, in: in, out: out}
}

// Run loads the asset list, then executes commands until EOF or quit.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Loading assets...")
	s.view.Load(ctx)
	if len(s.view.Assets()) == 0 {
		fmt.Fprintln(s.out, "No assets available.")
	}
	s.render()

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, prompt)
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := s.Exec(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// Exec runs one command line. quit is true when the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	arg := strings.Join(args, " ")

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(s.out, help)
		return false, nil
	case "show":
		s.render()
		return false, nil
	case "amount":
		err = s.view.SetAmount(arg)
	case "from":
		err = needArg(arg, s.view.SelectSource)
	case "to":
		err = needArg(arg, s.view.SelectTarget)
	case "swap":
		err = s.view.Swap()
	case "mode":
		err = s.setMode(arg)
	case "fiat":
		err = needArg(arg, s.view.SetFiat)
	case "pick":
		err = s.openPicker(arg)
		if err == nil {
			s.listAssets(s.view.PickerOptions(""))
			return false, nil
		}
	case "search":
		if s.view.Picker() == converter.PickerNone {
			return false, converter.ErrNoPicker
		}
		s.listAssets(s.view.PickerOptions(arg))
		return false, nil
	case "choose":
		err = needArg(arg, s.view.Choose)
	case "close":
		s.view.ClosePicker()
	case "assets":
		s.listAssets(domain.FilterAssets(s.view.Assets(), arg))
		return false, nil
	case "currencies":
		s.listCurrencies()
		return false, nil
	case "rate":
		s.printRate()
		return false, nil
	case "convert":
		summary, cerr := s.view.Convert(ctx)
		if cerr != nil {
			return false, cerr
		}
		fmt.Fprintf(s.out, "%s: %s\n", converter.ConversionCompleteTitle, summary)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q (type help)", cmd)
	}

	if err != nil {
		return false, err
	}
	s.render()
	return false, nil
}

func needArg(arg string, fn func(string) error) error {
	if arg == "" {
		return errors.New("missing argument")
	}
	return fn(arg)
}

func (s *Shell) setMode(arg string) error {
	if arg == "" {
		return s.view.ToggleMode()
	}
	mode, ok := domain.ParseMode(arg)
	if !ok {
		return fmt.Errorf("unknown mode %q", arg)
	}
	return s.view.SetMode(mode)
}

func (s *Shell) openPicker(arg string) error {
	switch strings.ToLower(arg) {
	case "from", "source":
		return s.view.OpenPicker(converter.PickerSource)
	case "to", "target":
		return s.view.OpenPicker(converter.PickerTarget)
	default:
		return fmt.Errorf("pick from or to, got %q", arg)
	}
}

func (s *Shell) render() {
	st := s.view.State()

	from := "-"
	if st.Mode == domain.ModeFiatToAsset {
		from = st.Fiat
	} else if st.Source != nil {
		from = st.Source.Ticker()
	}
	to := "-"
	if st.Target != nil {
		to = st.Target.Ticker()
	}

	fmt.Fprintf(s.out, "[%s] %s %s -> %s %s\n", st.Mode, st.SourceAmount, from, st.TargetAmount, to)
	if p := s.view.Picker(); p != converter.PickerNone {
		fmt.Fprintf(s.out, "  picker open: %s\n", p)
	}
}

func (s *Shell) printRate() {
	rate, ok := s.view.ExchangeRate()
	if !ok {
		fmt.Fprintln(s.out, "no rate available")
		return
	}
	fmt.Fprintln(s.out, rate.Unit)
	fmt.Fprintln(s.out, rate.USD)
}

func (s *Shell) listAssets(assets []domain.Asset) {
	if len(assets) == 0 {
		fmt.Fprintln(s.out, "no matching assets")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.Ticker(), a.Name, domain.FormatUSD(a.PriceUSD))
	}
	tw.Flush()
}

func (s *Shell) listCurrencies() {
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, c := range domain.FiatCurrencies() {
		fmt.Fprintf(tw, "%s\t%s\t%g\n", c.Code, c.Symbol, c.RateToUSD)
	}
	tw.Flush()
}
