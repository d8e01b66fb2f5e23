package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// BotConfig is one ranker setup taking part in an experiment.
type BotConfig struct {
	ID         int
	Goroutines int
	Budget     time.Duration
	Profile    string
}

type GameRecord struct {
	ID   int
	Bot1 int // BotConfig.ID
	Bot2 int // BotConfig.ID
	GameMetric
}

type UnitRecord struct {
	Game int // GameRecord.ID
	CycleMetric
}

type Writer struct {
	baseDir string
}

// NewWriter creates experiments/<name>/<timestamp> and writes there.
func NewWriter(name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	return NewWriterAt(filepath.Join("experiments", name, timestamp))
}

func NewWriterAt(baseDir string) (*Writer, error) {
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{baseDir: baseDir}, nil
}

func (w *Writer) Dir() string { return w.baseDir }

func (w *Writer) WriteBotConfigs(configs []BotConfig) error {
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			strconv.Itoa(config.Goroutines),
			config.Budget.String(),
			config.Profile,
		})
	}
	return w.write("bot_configs.csv", []string{"id", "goroutines", "budget", "profile"}, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Bot1),
			strconv.Itoa(record.Bot2),
			strconv.Itoa(record.Winner),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.Cycles),
			strconv.Itoa(record.Orders),
		})
	}
	header := []string{"id", "bot1", "bot2", "winner", "start_time", "end_time", "duration", "cycles", "orders"}
	return w.write("game_records.csv", header, rows)
}

func (w *Writer) WriteUnitRecords(records []UnitRecord) error {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Cycle),
			strconv.Itoa(record.Player),
			strconv.Itoa(record.Unit),
			strconv.FormatFloat(record.Rank, 'f', 3, 64),
			record.Duration.String(),
			strconv.Itoa(record.Enumerated),
			strconv.Itoa(record.Scored),
			strconv.Itoa(record.Duplicates),
			strconv.FormatBool(record.Partial),
		})
	}
	header := []string{"game", "cycle", "player", "unit", "rank", "duration", "enumerated", "scored", "duplicates", "partial"}
	return w.write("unit_records.csv", header, rows)
}

func (w *Writer) write(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
