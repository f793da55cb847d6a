package bot

import (
	"strings"
)

// CommandKind tags a classified command.
type CommandKind int

const (
	CmdIgnore CommandKind = iota
	CmdPlainReply
	CmdSeen
	CmdTell
	CmdWeather
	CmdLocation
	CmdCoins
	CmdLastfm
	CmdHangStart
	CmdHangGuess
)

func (k CommandKind) String() string {
	switch k {
	case CmdIgnore:
		return "ignore"
	case CmdPlainReply:
		return "plain_reply"
	case CmdSeen:
		return "seen"
	case CmdTell:
		return "tell"
	case CmdWeather:
		return "weather"
	case CmdLocation:
		return "location"
	case CmdCoins:
		return "coins"
	case CmdLastfm:
		return "lastfm"
	case CmdHangStart:
		return "hang_start"
	case CmdHangGuess:
		return "hang_guess"
	default:
		return "unknown"
	}
}

// Command is the typed result of classifying one message. Only the fields
// relevant to Kind are populated.
type Command struct {
	Kind CommandKind

	Text       string // PlainReply
	Nick       string // Seen, Tell, Lastfm
	Message    string // Tell
	Location   string // Weather (optional), Location
	Symbol     string // Coins
	Timeframe  string // Coins
	Difficulty string // HangStart ("" means medium)
	Guess      string // HangGuess
}

// Static reply surfaces.
const (
	helpText = "Commands: help | repo | seen <nick> | tell <nick> <message> | weather <location> | loc <location> | btc/eth/ltc/xmr/doge/ada/xrp <timeframe> | lastfm <user> | hang <short|medium|long>"
	repoURL  = "https://github.com/onnwee/boot"

	seenHint    = "Hint: seen <nick>"
	tellHint    = "Hint: tell <nick> <message>"
	locHint     = "Hint: loc <location>"
	weatherHint = "Hint: weather <location>"
	lastfmHint  = "noob"
)

// coinAliases maps lowercased coin tokens to canonical symbols.
var coinAliases = map[string]string{
	"btc": "BTC", "bitcoin": "BTC",
	"eth": "ETH", "ethereum": "ETH",
	"ltc": "LTC", "litecoin": "LTC",
	"xmr": "XMR", "monero": "XMR",
	"doge": "DOGE", "dogecoin": "DOGE",
	"ada": "ADA", "cardano": "ADA",
	"xrp": "XRP",
}

// timeframeAliases maps lowercased timeframe tokens to canonical timeframes.
// "3y" and "5y" pass through unchanged; anything else defaults to "1d".
var timeframeAliases = map[string]string{
	"day": "1d", "24h": "1d", "1d": "1d",
	"week": "7d", "7d": "7d",
	"fortnight": "14d", "14d": "14d",
	"month": "31d", "30d": "31d", "31d": "31d",
	"year": "1y", "1y": "1y",
	"3y": "3y",
	"5y": "5y",
}

// Classifier turns raw message text into a Command given the bot's own nick.
// Pure and total: unrecognized input maps to Ignore, never an error.
type Classifier struct {
	OwnNick string
	// BareGuess enables the game-edition fallback where a lone lowercase
	// token in a channel is treated as a hangman guess.
	BareGuess bool
}

// Classify implements the address-prefix and sub-command table.
func (c *Classifier) Classify(text string) Command {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return Command{Kind: CmdIgnore}
	}

	sub, args, addressed := c.address(tokens)
	if !addressed {
		// Game-enabled edition only: a lone lowercase token is a guess for
		// the active game. The dispatcher drops it when no game is running.
		if c.BareGuess && len(tokens) == 1 && isLowerWord(tokens[0]) {
			return Command{Kind: CmdHangGuess, Guess: tokens[0]}
		}
		return Command{Kind: CmdIgnore}
	}

	switch sub {
	case "help", "man", "manual":
		return Command{Kind: CmdPlainReply, Text: helpText}
	case "repo", "git":
		return Command{Kind: CmdPlainReply, Text: repoURL}
	case "seen":
		if len(args) == 0 || args[0] == "" {
			return Command{Kind: CmdPlainReply, Text: seenHint}
		}
		return Command{Kind: CmdSeen, Nick: args[0]}
	case "tell":
		if len(args) < 2 {
			return Command{Kind: CmdPlainReply, Text: tellHint}
		}
		return Command{Kind: CmdTell, Nick: args[0], Message: strings.TrimSpace(strings.Join(args[1:], " "))}
	case "weather":
		return Command{Kind: CmdWeather, Location: strings.TrimSpace(strings.Join(args, " "))}
	case "loc", "location":
		loc := strings.TrimSpace(strings.Join(args, " "))
		if loc == "" {
			return Command{Kind: CmdPlainReply, Text: locHint}
		}
		return Command{Kind: CmdLocation, Location: loc}
	case "lastfm":
		if len(args) == 0 {
			return Command{Kind: CmdPlainReply, Text: lastfmHint}
		}
		return Command{Kind: CmdLastfm, Nick: args[0]}
	case "hang":
		difficulty := ""
		if len(args) > 0 {
			switch args[0] {
			case "short", "medium", "long":
				difficulty = args[0]
			}
		}
		return Command{Kind: CmdHangStart, Difficulty: difficulty}
	}

	// Coin symbols and timeframes match case-insensitively.
	if symbol, ok := coinAliases[strings.ToLower(sub)]; ok {
		timeframe := "1d"
		if len(args) > 0 {
			if tf, ok := timeframeAliases[strings.ToLower(args[0])]; ok {
				timeframe = tf
			}
		}
		return Command{Kind: CmdCoins, Symbol: symbol, Timeframe: timeframe}
	}

	return Command{Kind: CmdIgnore}
}

// address decides whether the message addresses the bot and splits off the
// sub-command. The "./", ".", and "!" forms require more than just the
// punctuation so a lone "." never matches; the nick form is case-insensitive
// and defaults to "help" when nothing follows the nick.
func (c *Classifier) address(tokens []string) (sub string, args []string, ok bool) {
	first := tokens[0]
	switch {
	case strings.HasPrefix(first, "./") && len(first) > 2:
		return first[2:], tokens[1:], true
	case strings.HasPrefix(first, ".") && len(first) > 1:
		return first[1:], tokens[1:], true
	case strings.HasPrefix(first, "!") && len(first) > 1:
		return first[1:], tokens[1:], true
	}

	// Nick prefix match ("boot", "boot:", "boot,"), case-insensitive on the
	// nickname. The sub-command is the next token, defaulting to help.
	nick := strings.ToLower(c.OwnNick)
	if nick != "" && strings.HasPrefix(strings.ToLower(first), nick) {
		if len(tokens) < 2 {
			return "help", nil, true
		}
		return tokens[1], tokens[2:], true
	}
	return "", nil, false
}

func isLowerWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
