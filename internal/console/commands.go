package console

import (
	"context"
	"strings"

	"StockAnalyser/internal/collector"
	"StockAnalyser/internal/model"
)

// Analyser is the part of the collector the console drives.
type Analyser interface {
	RunTechnical(ctx context.Context, symbol string) (*collector.TechnicalResult, error)
	RunFundamental(ctx context.Context, symbol string) (*model.Security, error)
	Rank() ([]*model.Security, error)
	Analysed() []string
}

// HelpText lists the available commands.
const HelpText = `Commands:
  1, fundamental SYMBOL   Fundamental analysis (p/e, p/s, equity ratio)
  2, technical SYMBOL     Technical analysis (return, price range, beta)
  3, rank                 Rank analysed stocks by beta value
  4, exit                 Quit
  list                    List analysed stocks
  help                    Show this text`

// Commands maps console input to analyses.
type Commands struct {
	analyser Analyser
}

// NewCommands creates a handler set backed by analyser.
func NewCommands(analyser Analyser) *Commands {
	return &Commands{analyser: analyser}
}

// Handle executes one command line.
func (c *Commands) Handle(ctx context.Context, line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}
	cmd := strings.ToLower(fields[0])
	var arg string
	if len(fields) > 1 {
		arg = strings.ToUpper(fields[1])
	}

	switch cmd {
	case "1", "fundamental", "f":
		if arg == "" {
			return "Input a ticker from the S&P 500, e.g. fundamental AAPL", false
		}
		sec, err := c.analyser.RunFundamental(ctx, arg)
		if err != nil {
			return FormatError(err), false
		}
		return FormatFundamental(sec), false
	case "2", "technical", "t":
		if arg == "" {
			return "Input a ticker from the S&P 500, e.g. technical AAPL", false
		}
		res, err := c.analyser.RunTechnical(ctx, arg)
		if err != nil {
			return FormatError(err), false
		}
		return FormatTechnical(res), false
	case "3", "rank", "r":
		ranked, err := c.analyser.Rank()
		if err != nil {
			return FormatError(err), false
		}
		return FormatRanking(ranked), false
	case "list", "l":
		return FormatList(c.analyser.Analysed()), false
	case "4", "exit", "quit", "q":
		return "Bye", true
	case "help", "h", "?":
		return HelpText, false
	default:
		return "Unknown command " + fields[0] + "\n" + HelpText, false
	}
}
