package playerlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/harutoki/licensegate/internal/dependencies/clock"
	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/storage"
)

// Observation is one (friend-code, display-name) pair from telemetry
type Observation struct {
	FriendCode model.FriendCode
	Name       string
}

// Service maintains the player identity log: current names, prior-name sets,
// rename history and blacklist flags. Live telemetry and bulk imports feed
// through the same Observe/SetBlacklist operations, so the log converges to
// the same state regardless of which path delivered an update.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new player log service
func New(store storage.Storage, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		clock:   clk,
		logger:  logger,
	}
}

// Observe merges one observed name into the record for the friend-code,
// creating the record on first sight. Observing the current name again is a
// no-op.
func (s *Service) Observe(ctx context.Context, fc model.FriendCode, name string) (*model.PlayerRecord, error) {
	record, created, err := s.getOrCreate(ctx, fc)
	if err != nil {
		return nil, err
	}

	changed := record.ObserveName(name, s.clock.Now())
	if !changed && !created {
		return record, nil
	}

	if err := s.storage.SavePlayer(ctx, record); err != nil {
		return nil, fmt.Errorf("save player %d: %w", fc, err)
	}
	return record, nil
}

// ObserveBatch applies a batch of live observations in order
func (s *Service) ObserveBatch(ctx context.Context, observations []Observation) error {
	for _, o := range observations {
		if _, err := s.Observe(ctx, o.FriendCode, o.Name); err != nil {
			return err
		}
	}
	return nil
}

// SetBlacklist flags the friend-code with the given label, creating an
// empty-named record if the code has never been seen. Naming state is left
// untouched; a record may be renamed while blacklisted.
func (s *Service) SetBlacklist(ctx context.Context, fc model.FriendCode, label string) (*model.PlayerRecord, error) {
	record, _, err := s.getOrCreate(ctx, fc)
	if err != nil {
		return nil, err
	}

	record.Blacklisted = true
	record.BlacklistName = label

	if err := s.storage.SavePlayer(ctx, record); err != nil {
		return nil, fmt.Errorf("save player %d: %w", fc, err)
	}
	return record, nil
}

// ClearBlacklist removes the blacklist flag and label from the record
func (s *Service) ClearBlacklist(ctx context.Context, fc model.FriendCode) (*model.PlayerRecord, error) {
	record, err := s.storage.GetPlayer(ctx, fc)
	if err != nil {
		return nil, err
	}

	record.Blacklisted = false
	record.BlacklistName = ""

	if err := s.storage.SavePlayer(ctx, record); err != nil {
		return nil, fmt.Errorf("save player %d: %w", fc, err)
	}
	return record, nil
}

// Get returns the record for a friend-code
func (s *Service) Get(ctx context.Context, fc model.FriendCode) (*model.PlayerRecord, error) {
	return s.storage.GetPlayer(ctx, fc)
}

// List returns all records ordered by friend-code
func (s *Service) List(ctx context.Context) ([]*model.PlayerRecord, error) {
	records, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].FriendCode < records[j].FriendCode
	})
	return records, nil
}

// Import feeds a bulk text log through the same merge operations live data
// uses. Malformed lines are skipped, never fatal; the returned count covers
// only lines that merged a name or a blacklist flag.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	applied := 0
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		line, err := ParseLine(raw)
		if err != nil {
			if !errors.Is(err, errBlankLine) {
				s.logger.Warn("skipping malformed import line",
					slog.Int("line", lineNo),
					slog.String("error", err.Error()))
			}
			continue
		}

		// A plain line with an empty name carries nothing to merge
		if line.Name == "" && !line.Blacklist {
			continue
		}

		if line.Name != "" {
			if _, err := s.Observe(ctx, line.FriendCode, line.Name); err != nil {
				return applied, err
			}
		}
		if line.Blacklist {
			if _, err := s.SetBlacklist(ctx, line.FriendCode, line.BlacklistName); err != nil {
				return applied, err
			}
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return applied, fmt.Errorf("read import: %w", err)
	}

	return applied, nil
}

// Export writes the log in the import format: blacklisted records first,
// then the rest, each group ordered by friend-code. A well-formed export
// re-imports to an equivalent log.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	records, err := s.List(ctx)
	if err != nil {
		return err
	}

	for _, record := range records {
		if record.Blacklisted {
			if _, err := fmt.Fprintln(w, FormatLine(record)); err != nil {
				return err
			}
		}
	}
	for _, record := range records {
		if !record.Blacklisted {
			if _, err := fmt.Fprintln(w, FormatLine(record)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) getOrCreate(ctx context.Context, fc model.FriendCode) (record *model.PlayerRecord, created bool, err error) {
	if fc < 0 {
		return nil, false, fmt.Errorf("%w: negative friend code %d", model.ErrMalformedInput, fc)
	}

	record, err = s.storage.GetPlayer(ctx, fc)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return &model.PlayerRecord{FriendCode: fc}, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return record, false, nil
}
