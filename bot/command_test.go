package bot

import (
	"testing"
)

func classify(t *testing.T, text string) Command {
	t.Helper()
	c := Classifier{OwnNick: "boot"}
	return c.Classify(text)
}

func TestClassifyIgnoresUnaddressed(t *testing.T) {
	for _, text := range []string{
		"",
		"hello world",
		"seen alice",
		"what does .seen do?",
		"totally normal chatter",
		"robot: seen alice",
	} {
		if got := classify(t, text); got.Kind != CmdIgnore {
			t.Errorf("Classify(%q).Kind = %v, want ignore", text, got.Kind)
		}
	}
}

func TestClassifyLonePunctuation(t *testing.T) {
	// "." and "!" are length-1 tokens and must not count as address prefixes.
	for _, text := range []string{".", "!", ". seen alice", "! help"} {
		if got := classify(t, text); got.Kind != CmdIgnore {
			t.Errorf("Classify(%q).Kind = %v, want ignore", text, got.Kind)
		}
	}
}

func TestClassifyPrefixForms(t *testing.T) {
	for _, text := range []string{".seen alice", "!seen alice", "./seen alice", "boot: seen alice", "boot seen alice", "BOOT: seen alice"} {
		got := classify(t, text)
		if got.Kind != CmdSeen || got.Nick != "alice" {
			t.Errorf("Classify(%q) = %+v, want Seen(alice)", text, got)
		}
	}
}

func TestClassifyHelpVariants(t *testing.T) {
	for _, text := range []string{".help", ".man", ".manual", "boot:"} {
		got := classify(t, text)
		if got.Kind != CmdPlainReply || got.Text != helpText {
			t.Errorf("Classify(%q) = %+v, want help reply", text, got)
		}
	}
}

func TestClassifyRepo(t *testing.T) {
	for _, text := range []string{".repo", "!git"} {
		got := classify(t, text)
		if got.Kind != CmdPlainReply || got.Text != repoURL {
			t.Errorf("Classify(%q) = %+v, want repo reply", text, got)
		}
	}
}

func TestClassifySubCommandCaseSensitive(t *testing.T) {
	// The dotted/bang forms match sub-commands case-sensitively.
	for _, text := range []string{".SEEN alice", "!Help"} {
		if got := classify(t, text); got.Kind != CmdIgnore {
			t.Errorf("Classify(%q).Kind = %v, want ignore", text, got.Kind)
		}
	}
}

func TestClassifySeenMissingArg(t *testing.T) {
	got := classify(t, ".seen")
	if got.Kind != CmdPlainReply || got.Text != seenHint {
		t.Errorf("Classify(.seen) = %+v, want hint reply", got)
	}
}

func TestClassifyTell(t *testing.T) {
	got := classify(t, ".tell bob remember the milk")
	if got.Kind != CmdTell || got.Nick != "bob" || got.Message != "remember the milk" {
		t.Errorf("Classify(.tell …) = %+v", got)
	}
	for _, text := range []string{".tell", ".tell bob"} {
		got := classify(t, text)
		if got.Kind != CmdPlainReply || got.Text != tellHint {
			t.Errorf("Classify(%q) = %+v, want hint reply", text, got)
		}
	}
}

func TestClassifyWeather(t *testing.T) {
	got := classify(t, ".weather")
	if got.Kind != CmdWeather || got.Location != "" {
		t.Errorf("Classify(.weather) = %+v, want empty location", got)
	}
	got = classify(t, ".weather New York City")
	if got.Kind != CmdWeather || got.Location != "New York City" {
		t.Errorf("Classify(.weather New York City) = %+v", got)
	}
}

func TestClassifyLocation(t *testing.T) {
	got := classify(t, ".loc Berlin")
	if got.Kind != CmdLocation || got.Location != "Berlin" {
		t.Errorf("Classify(.loc Berlin) = %+v", got)
	}
	got = classify(t, ".location Berlin")
	if got.Kind != CmdLocation {
		t.Errorf("Classify(.location Berlin) = %+v", got)
	}
	got = classify(t, ".loc")
	if got.Kind != CmdPlainReply || got.Text != locHint {
		t.Errorf("Classify(.loc) = %+v, want hint reply", got)
	}
}

func TestClassifyCoins(t *testing.T) {
	cases := []struct {
		text      string
		symbol    string
		timeframe string
	}{
		{".btc", "BTC", "1d"},
		{".bitcoin day", "BTC", "1d"},
		{".BTC week", "BTC", "7d"},
		{".eth fortnight", "ETH", "14d"},
		{".xmr month", "XMR", "31d"},
		{".doge year", "DOGE", "1y"},
		{".ltc 3y", "LTC", "3y"},
		{".ada 5y", "ADA", "5y"},
		{".xrp sideways", "XRP", "1d"}, // unrecognized timeframe defaults
	}
	for _, tc := range cases {
		got := classify(t, tc.text)
		if got.Kind != CmdCoins || got.Symbol != tc.symbol || got.Timeframe != tc.timeframe {
			t.Errorf("Classify(%q) = %+v, want Coins(%s, %s)", tc.text, got, tc.symbol, tc.timeframe)
		}
	}
}

func TestClassifyLastfm(t *testing.T) {
	got := classify(t, ".lastfm alice")
	if got.Kind != CmdLastfm || got.Nick != "alice" {
		t.Errorf("Classify(.lastfm alice) = %+v", got)
	}
	got = classify(t, ".lastfm")
	if got.Kind != CmdPlainReply || got.Text != lastfmHint {
		t.Errorf("Classify(.lastfm) = %+v, want %q reply", got, lastfmHint)
	}
}

func TestClassifyHang(t *testing.T) {
	got := classify(t, ".hang")
	if got.Kind != CmdHangStart || got.Difficulty != "" {
		t.Errorf("Classify(.hang) = %+v, want default difficulty", got)
	}
	got = classify(t, ".hang long")
	if got.Kind != CmdHangStart || got.Difficulty != "long" {
		t.Errorf("Classify(.hang long) = %+v", got)
	}
	got = classify(t, ".hang impossible")
	if got.Kind != CmdHangStart || got.Difficulty != "" {
		t.Errorf("Classify(.hang impossible) = %+v, want default difficulty", got)
	}
}

func TestClassifyBareGuess(t *testing.T) {
	c := Classifier{OwnNick: "boot", BareGuess: true}
	got := c.Classify("e")
	if got.Kind != CmdHangGuess || got.Guess != "e" {
		t.Errorf("Classify(e) = %+v, want HangGuess(e)", got)
	}
	got = c.Classify("ferret")
	if got.Kind != CmdHangGuess || got.Guess != "ferret" {
		t.Errorf("Classify(ferret) = %+v, want HangGuess(ferret)", got)
	}
	for _, text := range []string{"E", "two words", "x1", ""} {
		if got := c.Classify(text); got.Kind != CmdIgnore {
			t.Errorf("Classify(%q).Kind = %v, want ignore", text, got.Kind)
		}
	}
}
