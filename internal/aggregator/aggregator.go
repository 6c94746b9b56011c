// Package aggregator builds agent records from extracted spreadsheet rows.
package aggregator

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/uzhanitsoft/qarzdorlik/internal/extractor"
	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
	"github.com/uzhanitsoft/qarzdorlik/internal/model"
)

// Parser extracts debtor rows from one uploaded file.
type Parser interface {
	Parse(file extractor.File) ([]model.Debtor, error)
}

// FileError reports a file that was skipped from a batch.
type FileError struct {
	File string `json:"file"`
	Err  error  `json:"-"`
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.File, e.Err) }

func (e FileError) Unwrap() error { return e.Err }

// Batch is the outcome of one upload.
type Batch struct {
	Agents []model.Agent
	Failed []FileError
}

// BuildAgent totals debtors into an agent record, keeping row order.
func BuildAgent(name string, debtors []model.Debtor) model.Agent {
	a := model.Agent{
		Name:     name,
		Debtors:  make([]model.Debtor, len(debtors)),
		TotalUSD: decimal.Zero,
		TotalUZS: decimal.Zero,
	}
	copy(a.Debtors, debtors)
	for _, d := range debtors {
		a.TotalUSD = a.TotalUSD.Add(d.USD)
		a.TotalUZS = a.TotalUZS.Add(d.UZS)
	}
	a.DebtorCount = len(debtors)
	return a
}

// BuildBatch parses files concurrently with at most workers in flight and
// returns one agent per readable file in upload order. Unreadable files are
// logged and reported in Failed; they never abort the batch. The only error
// returned is ctx's.
func BuildBatch(ctx context.Context, files []extractor.File, parser Parser, workers int) (*Batch, error) {
	if workers < 1 {
		workers = 1
	}

	agents := make([]*model.Agent, len(files))
	failures := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			agent, err := buildFile(parser, file)
			if err != nil {
				failures[i] = err
				return nil
			}
			agents[i] = &agent
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &Batch{Agents: make([]model.Agent, 0, len(files))}
	for i, file := range files {
		if failures[i] != nil {
			logger.Error("error processing file %s: %v", file.Name, failures[i])
			batch.Failed = append(batch.Failed, FileError{File: file.Name, Err: failures[i]})
			continue
		}
		batch.Agents = append(batch.Agents, *agents[i])
	}
	return batch, nil
}

// buildFile recovers from parser panics so one malformed workbook cannot
// take the batch down.
func buildFile(parser Parser, file extractor.File) (agent model.Agent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while parsing: %v", r)
		}
	}()

	debtors, err := parser.Parse(file)
	if err != nil {
		return model.Agent{}, err
	}
	return BuildAgent(extractor.AgentName(file.Name), debtors), nil
}
