package persona

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RepeatPolicy decides what happens when a player resubmits a used word.
type RepeatPolicy string

const (
	RepeatAllow RepeatPolicy = "allow"
	RepeatFoul  RepeatPolicy = "foul"
)

// Valid reports whether the policy is known.
func (p RepeatPolicy) Valid() bool {
	return p == RepeatAllow || p == RepeatFoul
}

// Messages holds the user-visible shiritori texts. Fields containing %s
// receive a syllable or word.
type Messages struct {
	Start       string `yaml:"start"`
	Quit        string `yaml:"quit"`
	WrongStart  string `yaml:"wrong_start"`  // %s expected syllable
	Unreadable  string `yaml:"unreadable"`
	HumanLoses  string `yaml:"human_loses"`  // %s losing syllable
	RepeatFoul  string `yaml:"repeat_foul"`  // %s repeated word
	BotConcedes string `yaml:"bot_concedes"` // %s syllable with no candidates
	BotLoses    string `yaml:"bot_loses"`    // %s bot word, %s losing syllable
	BotMove     string `yaml:"bot_move"`     // %s bot word, %s next syllable
	Apology     string `yaml:"apology"`
}

// Rules configures the chain game.
type Rules struct {
	StartCommand string       `yaml:"start_command"`
	QuitCommand  string       `yaml:"quit_command"`
	RepeatPolicy RepeatPolicy `yaml:"repeat_policy"`
	Messages     Messages     `yaml:"messages"`
}

// Catalog is the full static content set.
type Catalog struct {
	DefaultPersona string    `yaml:"default_persona"`
	Personas       []Persona `yaml:"personas"`
	Shiritori      Rules     `yaml:"shiritori"`
}

// DefaultRules returns the built-in game rules.
func DefaultRules() Rules {
	return Rules{
		StartCommand: "/shiritori",
		QuitCommand:  "やめる",
		RepeatPolicy: RepeatAllow,
		Messages: Messages{
			Start:       "しりとりを始めるよ！最初の言葉をどうぞ✨",
			Quit:        "しりとりを終了したよ。おつかれさま〜",
			WrongStart:  "「%s」から始めてほしかったんだけど…",
			Unreadable:  "ひらがなかカタカナで答えてね！やめるときは「やめる」って送ってね。",
			HumanLoses:  "「%s」がついたから負けだよ〜〜〜！💥",
			RepeatFoul:  "「%s」はもう使った言葉だよ！あなたの負け〜！💥",
			BotConcedes: "うぅ…「%s」から始まる言葉、思いつかない…負けた！",
			BotLoses:    "%s…あっ、「%s」で終わっちゃった！わたしの負け〜",
			BotMove:     "%s（%s）…さあ、次はあなたの番よ！",
			Apology:     "ごめんね、ちょっと調子が悪いみたい…もう一回話しかけてね。",
		},
	}
}

// DefaultCatalog returns Seed with the default rules.
func DefaultCatalog() Catalog {
	return Catalog{
		DefaultPersona: "tsundere_junior",
		Personas:       Seed(),
		Shiritori:      DefaultRules(),
	}
}

// LoadCatalog reads a YAML content file. A missing file yields DefaultCatalog.
// Fields left empty in the file keep their default values.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return &catalog, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &catalog, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read persona catalog: %w", err)
	}

	var loaded Catalog
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse persona catalog %s: %w", path, err)
	}

	if len(loaded.Personas) > 0 {
		catalog.Personas = loaded.Personas
		catalog.DefaultPersona = loaded.Personas[0].ID
	}
	if loaded.DefaultPersona != "" {
		catalog.DefaultPersona = loaded.DefaultPersona
	}
	catalog.Shiritori = mergeRules(catalog.Shiritori, loaded.Shiritori)

	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate checks cross references inside the catalog.
func (c Catalog) Validate() error {
	if len(c.Personas) == 0 {
		return errors.New("persona catalog is empty")
	}
	seen := make(map[string]bool, len(c.Personas))
	commands := make(map[string]bool, len(c.Personas))
	for _, p := range c.Personas {
		if p.ID == "" {
			return errors.New("persona id is required")
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate persona id %q", p.ID)
		}
		seen[p.ID] = true
		if p.Command != "" {
			if commands[p.Command] {
				return fmt.Errorf("duplicate persona command %q", p.Command)
			}
			commands[p.Command] = true
		}
	}
	if !seen[c.DefaultPersona] {
		return fmt.Errorf("default persona %q not found", c.DefaultPersona)
	}
	if !c.Shiritori.RepeatPolicy.Valid() {
		return fmt.Errorf("invalid repeat policy %q", c.Shiritori.RepeatPolicy)
	}
	return nil
}

func mergeRules(base, override Rules) Rules {
	if override.StartCommand != "" {
		base.StartCommand = override.StartCommand
	}
	if override.QuitCommand != "" {
		base.QuitCommand = override.QuitCommand
	}
	if override.RepeatPolicy != "" {
		base.RepeatPolicy = override.RepeatPolicy
	}
	m, o := &base.Messages, override.Messages
	for _, pair := range []struct {
		dst *string
		src string
	}{
		{&m.Start, o.Start}, {&m.Quit, o.Quit}, {&m.WrongStart, o.WrongStart},
		{&m.Unreadable, o.Unreadable}, {&m.HumanLoses, o.HumanLoses}, {&m.RepeatFoul, o.RepeatFoul},
		{&m.BotConcedes, o.BotConcedes}, {&m.BotLoses, o.BotLoses}, {&m.BotMove, o.BotMove},
		{&m.Apology, o.Apology},
	} {
		if pair.src != "" {
			*pair.dst = pair.src
		}
	}
	return base
}
