// Package catalog loads word lists and imports them into the words table.
//
// A word list is a JSON array:
//
//	[{"word": "casa", "level": "easy", "readingTime": 450}, ...]
//
// readingTime is in milliseconds and level is easy, medium or hard.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/dbx"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/repomanager"
	"github.com/samber/oops"
)

// Source yields a word list.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

type entry struct {
	Word        string      `json:"word"`
	Level       models.Tier `json:"level"`
	ReadingTime int64       `json:"readingTime"`
}

// Decode parses and checks a word list. Later duplicates replace earlier
// ones; the result keeps first-seen order.
func Decode(r io.Reader) ([]models.Word, error) {
	var entries []entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: word list: %v", common.ErrorValidation, err)
	}

	index := make(map[string]int, len(entries))
	words := make([]models.Word, 0, len(entries))
	for i, e := range entries {
		text := strings.TrimSpace(e.Word)
		if text == "" {
			return nil, fmt.Errorf("%w: entry %d: empty word", common.ErrorValidation, i)
		}
		if !e.Level.Valid() {
			return nil, fmt.Errorf("%w: entry %d (%s): missing level", common.ErrorValidation, i, text)
		}
		if e.ReadingTime <= 0 {
			return nil, fmt.Errorf("%w: entry %d (%s): readingTime must be positive", common.ErrorValidation, i, text)
		}

		w := models.Word{Text: text, Tier: e.Level, ReadingTime: time.Duration(e.ReadingTime) * time.Millisecond}
		if j, ok := index[text]; ok {
			words[j] = w
			continue
		}
		index[text] = len(words)
		words = append(words, w)
	}
	return words, nil
}

// Load opens src and decodes it.
func Load(ctx context.Context, src Source) ([]models.Word, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, oops.Code("CATALOG_OPEN_FAILED").With("source", src.String()).Wrap(err)
	}
	defer rc.Close()

	return Decode(rc)
}

// Import loads src and upserts every word in a single transaction. It
// returns the number of words written.
func Import(ctx context.Context, db *sql.DB, m repomanager.RepositoryManager, src Source) (int, error) {
	words, err := Load(ctx, src)
	if err != nil {
		return 0, err
	}

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.Words(tx)
		for _, w := range words {
			if err := repo.Upsert(ctx, w); err != nil {
				return oops.Code("CATALOG_UPSERT_FAILED").With("word", w.Text).Wrap(err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(words), nil
}
