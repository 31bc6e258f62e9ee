package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type seedSubject struct {
	level, name string
}

type seedProgram struct {
	name     string
	subjects []seedSubject
}

type seedInstitution struct {
	name, code, city string
	programs         []seedProgram
}

var demoCatalog = []seedInstitution{
	{
		name: "Université Cheikh Anta Diop", code: "UCAD", city: "Dakar",
		programs: []seedProgram{
			{name: "Informatique", subjects: []seedSubject{
				{"L1", "Algorithmique"},
				{"L1", "Architecture des ordinateurs"},
				{"L2", "Bases de données"},
				{"L2", "Programmation orientée objet"},
				{"M1", "Systèmes distribués"},
			}},
			{name: "Mathématiques", subjects: []seedSubject{
				{"L1", "Analyse 1"},
				{"L1", "Algèbre linéaire"},
			}},
		},
	},
	{
		name: "Université Gaston Berger", code: "UGB", city: "Saint-Louis",
		programs: []seedProgram{
			{name: "Économie", subjects: []seedSubject{
				{"L1", "Microéconomie"},
				{"L3", "Économétrie"},
			}},
		},
	},
}

// Seed inserts the demo catalog when no institution exists yet. It reports
// whether anything was inserted.
func Seed(ctx context.Context, db *sqlx.DB) (bool, error) {
	var count int64
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM institutions`); err != nil {
		return false, fmt.Errorf("count institutions: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, inst := range demoCatalog {
		var instID int64
		if err := tx.QueryRowxContext(ctx,
			`INSERT INTO institutions (name, code, city) VALUES ($1, $2, $3) RETURNING id`,
			inst.name, inst.code, inst.city,
		).Scan(&instID); err != nil {
			return false, fmt.Errorf("insert institution %s: %w", inst.code, err)
		}
		for _, prog := range inst.programs {
			var progID int64
			if err := tx.QueryRowxContext(ctx,
				`INSERT INTO programs (name, institution_id) VALUES ($1, $2) RETURNING id`,
				prog.name, instID,
			).Scan(&progID); err != nil {
				return false, fmt.Errorf("insert program %s: %w", prog.name, err)
			}
			for _, subj := range prog.subjects {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO subjects (name, program_id, level) VALUES ($1, $2, $3)`,
					subj.name, progID, subj.level,
				); err != nil {
					return false, fmt.Errorf("insert subject %s: %w", subj.name, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
