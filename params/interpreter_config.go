package params

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"unicode"

	"github.com/naoina/toml"
	"github.com/pkg/errors"
)

// InterpreterConfig carries the tunables of the call core. It is threaded
// through the code cache and the EVM at construction time.
type InterpreterConfig struct {
	// MaxCallDepth is the depth at which further calls soft-fail.
	MaxCallDepth int

	// EagerAnalysisLimit is the largest code (in bytes) whose jump
	// destinations are analysed on the calling goroutine. Larger code is
	// handed to the analysis workers.
	EagerAnalysisLimit int

	// Hot code thresholds, counted in executions of a code hash. Pattern
	// matching is checked first.
	EnablePatternMatching    bool
	PatternMatchingThreshold uint64
	EnableJit                bool
	JitThreshold             uint64

	AnalysisWorkers   int // Number of background analysis goroutines
	AnalysisQueueSize int // Pending analysis tasks before new ones are dropped
	CodeCacheSize     int // Number of code hashes kept in the code cache

	// ParallelDecodeThreshold is the multi-exponentiation batch size from
	// which point decoding fans out over the goroutine pool.
	ParallelDecodeThreshold int
}

// DefaultInterpreterConfig contains the defaults used when no config file
// is given.
var DefaultInterpreterConfig = InterpreterConfig{
	MaxCallDepth:             int(CallCreateDepth),
	EagerAnalysisLimit:       4 * 1024,
	EnablePatternMatching:    true,
	PatternMatchingThreshold: 128,
	EnableJit:                true,
	JitThreshold:             1024,
	AnalysisWorkers:          defaultAnalysisWorkers(),
	AnalysisQueueSize:        1024,
	CodeCacheSize:            16 * 1024,
	ParallelDecodeThreshold:  8,
}

func defaultAnalysisWorkers() int {
	workers := runtime.NumCPU() / 8
	if workers < 1 {
		workers = 1
	}
	return workers
}

// Validate checks the config for values the call core cannot work with.
func (c *InterpreterConfig) Validate() error {
	switch {
	case c.MaxCallDepth <= 0:
		return fmt.Errorf("invalid MaxCallDepth %d", c.MaxCallDepth)
	case c.AnalysisWorkers <= 0:
		return fmt.Errorf("invalid AnalysisWorkers %d", c.AnalysisWorkers)
	case c.AnalysisQueueSize <= 0:
		return fmt.Errorf("invalid AnalysisQueueSize %d", c.AnalysisQueueSize)
	case c.CodeCacheSize <= 0:
		return fmt.Errorf("invalid CodeCacheSize %d", c.CodeCacheSize)
	case c.EnablePatternMatching && c.PatternMatchingThreshold == 0:
		return errors.New("PatternMatchingThreshold must be positive when pattern matching is enabled")
	case c.EnableJit && c.JitThreshold == 0:
		return errors.New("JitThreshold must be positive when jit is enabled")
	case c.EnablePatternMatching && c.EnableJit && c.PatternMatchingThreshold == c.JitThreshold:
		return fmt.Errorf("PatternMatchingThreshold and JitThreshold must differ, both are %d", c.JitThreshold)
	}
	return nil
}

// Config is the layout of the TOML config file.
type Config struct {
	Chain       *ChainConfig
	Interpreter InterpreterConfig
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// LoadConfig reads the TOML file on top of the interpreter defaults. A file
// without a Chain section runs with every fork active.
func LoadConfig(file string) (*Config, error) {
	cfg := &Config{Interpreter: DefaultInterpreterConfig}
	f, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		return nil, errors.New(file + ", " + err.Error())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode config %s", file)
	}
	if cfg.Chain == nil {
		cfg.Chain = AllForksChainConfig
	}
	if err := cfg.Chain.CheckConfigForkOrder(); err != nil {
		return nil, errors.Wrap(err, "chain config")
	}
	if err := cfg.Interpreter.Validate(); err != nil {
		return nil, errors.Wrap(err, "interpreter config")
	}
	return cfg, nil
}
