package sim

import (
	"errors"
	"log/slog"
	"os"

	"github.com/Manu343726/x86sim/pkg/utils"
	"github.com/Manu343726/x86sim/pkg/x86/asm"
	"github.com/Manu343726/x86sim/pkg/x86/interpreter"
	"github.com/spf13/viper"
)

var ErrProgramFile = errors.New("cannot read program file")

// loadSimulator reads an assembly source file and loads it into a fresh
// simulator session configured from the dialect setting
func loadSimulator(path string) (*interpreter.Simulator, interpreter.LoadResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, interpreter.LoadResult{}, utils.MakeError(ErrProgramFile, "%s: %v", path, err)
	}

	dialect, err := asm.ParseDialect(viper.GetString("dialect"))
	if err != nil {
		return nil, interpreter.LoadResult{}, err
	}

	simulator := interpreter.NewSimulator(slog.Default())
	simulator.SetDialect(dialect)
	result := simulator.Load(string(source))

	return simulator, result, nil
}

// stepBudget returns the configured runaway-loop bound
func stepBudget() int {
	budget := viper.GetInt("step_budget")
	if budget <= 0 {
		budget = 10000
	}
	return budget
}
