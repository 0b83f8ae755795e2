package database

import (
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/storage"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const migrationDedupeScoreKeys = "2026-10-01_dedupe_score_keys"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationDedupeScoreKeys, apply: dedupeScoreKeys},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// dedupeScoreKeys keeps one score per (player, game) pair, the most recently updated one,
// and drops scores referencing players or games that no longer exist.
func dedupeScoreKeys(db *gorm.DB) error {
	var records []storage.DocumentRecord
	if err := db.Find(&records).Error; err != nil {
		return err
	}

	for _, record := range records {
		document, err := leaderboard.DecodeDocument(record.Payload)
		if err != nil {
			return err
		}
		repaired, changed := repairScores(document)
		if !changed {
			continue
		}
		payload, err := leaderboard.EncodeDocument(repaired)
		if err != nil {
			return err
		}
		if err := db.Model(&storage.DocumentRecord{}).
			Where("name = ?", record.Name).
			Updates(map[string]interface{}{
				"payload":    datatypes.JSON(payload),
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

func repairScores(document leaderboard.Document) (leaderboard.Document, bool) {
	livePlayers := make(map[string]struct{}, len(document.Players))
	for _, player := range document.Players {
		livePlayers[player.ID] = struct{}{}
	}
	liveGames := make(map[string]struct{}, len(document.Games))
	for _, game := range document.Games {
		liveGames[game.ID] = struct{}{}
	}

	type scoreKey struct {
		playerID string
		gameID   string
	}
	positions := make(map[scoreKey]int, len(document.Scores))
	kept := make([]leaderboard.Score, 0, len(document.Scores))
	for _, score := range document.Scores {
		if _, ok := livePlayers[score.PlayerID]; !ok {
			continue
		}
		if _, ok := liveGames[score.GameID]; !ok {
			continue
		}
		key := scoreKey{playerID: score.PlayerID, gameID: score.GameID}
		if position, seen := positions[key]; seen {
			if score.UpdatedAt.After(kept[position].UpdatedAt) {
				kept[position] = score
			}
			continue
		}
		positions[key] = len(kept)
		kept = append(kept, score)
	}

	changed := len(kept) != len(document.Scores)
	document.Scores = kept
	return document, changed
}
