package leaderboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	errMissingStore      = errors.New("record store is required")
	errMissingIDProvider = errors.New("id provider is required")
	errEmptyName         = errors.New("name must not be empty")
	errNegativeScore     = errors.New("score cannot be negative")
	errScoreTooLarge     = errors.New("score exceeds the maximum safe integer")
	errMissingReference  = errors.New("player and game identifiers are required")
	noOpLogger           = zap.NewNop()
)

const (
	opServiceNew      = "leaderboard.service.new"
	opInitialize      = "leaderboard.initialize"
	opListPlayers     = "leaderboard.list_players"
	opListGames       = "leaderboard.list_games"
	opListScores      = "leaderboard.list_scores"
	opListActivities  = "leaderboard.list_activities"
	opAddPlayer       = "leaderboard.add_player"
	opRemovePlayer    = "leaderboard.remove_player"
	opAddGame         = "leaderboard.add_game"
	opRemoveGame      = "leaderboard.remove_game"
	opUpsertScore     = "leaderboard.upsert_score"
	opCreateScore     = "leaderboard.create_score"
	opResetScore      = "leaderboard.reset_score"
	opLeaderboard     = "leaderboard.aggregate"
	opExport          = "leaderboard.export"
	opStats           = "leaderboard.stats"
	fieldPlayerID     = "player_id"
	fieldGameID       = "game_id"
	fieldName         = "name"
	reasonMissing     = "missing_store"
	reasonLoadFailed  = "load_failed"
	reasonSaveFailed  = "save_failed"
	reasonSeedFailed  = "seed_failed"
	reasonIDFailed    = "id_generation_failed"
	reasonInvalidName = "invalid_name"
)

// CommandObserver receives the outcome and duration of every service operation.
type CommandObserver interface {
	ObserveCommand(operation string, err error, elapsed time.Duration)
}

// ServiceConfig describes the dependencies of the command surface.
type ServiceConfig struct {
	Store      Store
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
	Publishers []ActivityPublisher
	Observer   CommandObserver
}

// Service composes store access, validation and activity logging into named operations.
// A single writer lock spans each load-mutate-save cycle.
type Service struct {
	mu         sync.Mutex
	store      Store
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
	publishers []ActivityPublisher
	observer   CommandObserver
}

// NewService validates dependencies and constructs the command surface.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, reasonMissing, ErrInvalidArgument, errMissingStore)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", ErrInvalidArgument, errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	publishers := make([]ActivityPublisher, 0, len(cfg.Publishers))
	for _, publisher := range cfg.Publishers {
		if publisher != nil {
			publishers = append(publishers, publisher)
		}
	}

	return &Service{
		store:      cfg.Store,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
		publishers: publishers,
		observer:   cfg.Observer,
	}, nil
}

// Initialize seeds storage when it holds no document. It reports whether the seed was written.
func (service *Service) Initialize(ctx context.Context) (seeded bool, err error) {
	defer service.observe(opInitialize, service.now(), &err)
	if service.store == nil {
		return false, service.fail(opInitialize, reasonMissing, ErrStorage, errMissingStore)
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	seeded, err = service.store.Initialize(ctx, SeedDocument(service.now()))
	if err != nil {
		return false, service.fail(opInitialize, reasonSeedFailed, classifyStoreError(err), err)
	}
	if seeded {
		service.logger.Info("leaderboard storage seeded")
	}
	return seeded, nil
}

// ListPlayers returns every player in store order.
func (service *Service) ListPlayers(ctx context.Context) (players []Player, err error) {
	defer service.observe(opListPlayers, service.now(), &err)
	document, err := service.read(ctx, opListPlayers)
	if err != nil {
		return nil, err
	}
	return document.Players, nil
}

// ListGames returns every game in store order.
func (service *Service) ListGames(ctx context.Context) (games []Game, err error) {
	defer service.observe(opListGames, service.now(), &err)
	document, err := service.read(ctx, opListGames)
	if err != nil {
		return nil, err
	}
	return document.Games, nil
}

// ListScores returns every score in store order.
func (service *Service) ListScores(ctx context.Context) (scores []Score, err error) {
	defer service.observe(opListScores, service.now(), &err)
	document, err := service.read(ctx, opListScores)
	if err != nil {
		return nil, err
	}
	return document.Scores, nil
}

// ListActivities returns the newest limit activities, newest first.
func (service *Service) ListActivities(ctx context.Context, limit int) (activities []Activity, err error) {
	defer service.observe(opListActivities, service.now(), &err)
	if limitErr := ValidateActivityLimit(limit); limitErr != nil {
		return nil, service.fail(opListActivities, "invalid_limit", ErrInvalidArgument, limitErr)
	}
	document, err := service.read(ctx, opListActivities)
	if err != nil {
		return nil, err
	}
	return RecentActivities(document.Activities, limit), nil
}

// Leaderboard aggregates the current collections into ranked rows.
func (service *Service) Leaderboard(ctx context.Context) (rows []Row, err error) {
	defer service.observe(opLeaderboard, service.now(), &err)
	document, err := service.read(ctx, opLeaderboard)
	if err != nil {
		return nil, err
	}
	return Aggregate(document.Players, document.Games, document.Scores), nil
}

// Export returns the complete stored document.
func (service *Service) Export(ctx context.Context) (document Document, err error) {
	defer service.observe(opExport, service.now(), &err)
	return service.read(ctx, opExport)
}

// Stats reports collection sizes.
func (service *Service) Stats(ctx context.Context) (stats Stats, err error) {
	defer service.observe(opStats, service.now(), &err)
	document, err := service.read(ctx, opStats)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Players:    len(document.Players),
		Games:      len(document.Games),
		Scores:     len(document.Scores),
		Activities: len(document.Activities),
	}, nil
}

// AddPlayer creates a player with a case-insensitively unique name.
func (service *Service) AddPlayer(ctx context.Context, name string) (player Player, err error) {
	defer service.observe(opAddPlayer, service.now(), &err)
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Player{}, service.fail(opAddPlayer, reasonInvalidName, ErrInvalidArgument, errEmptyName)
	}

	err = service.mutate(ctx, opAddPlayer, func(document *Document, now time.Time) (activityDraft, error) {
		for _, existing := range document.Players {
			if sameName(existing.Name, trimmed) {
				return activityDraft{}, service.fail(opAddPlayer, "name_conflict", ErrConflict, nil, zap.String(fieldName, trimmed))
			}
		}
		id, idErr := service.idProvider.NewID()
		if idErr != nil {
			return activityDraft{}, service.fail(opAddPlayer, reasonIDFailed, ErrStorage, idErr)
		}
		player = Player{ID: id, Name: trimmed, CreatedAt: now}
		document.Players = append(document.Players, player)
		return activityDraft{
			activityType: ActivityPlayerAdded,
			message:      playerAddedMessage(trimmed),
			playerID:     player.ID,
		}, nil
	})
	if err != nil {
		return Player{}, err
	}
	return player, nil
}

// RemovePlayer deletes a player together with every score referencing it.
func (service *Service) RemovePlayer(ctx context.Context, playerID string) (err error) {
	defer service.observe(opRemovePlayer, service.now(), &err)
	return service.mutate(ctx, opRemovePlayer, func(document *Document, _ time.Time) (activityDraft, error) {
		player, ok := document.findPlayer(playerID)
		if !ok {
			return activityDraft{}, service.fail(opRemovePlayer, "player_not_found", ErrNotFound, nil, zap.String(fieldPlayerID, playerID))
		}
		document.Scores = filterScores(document.Scores, func(score Score) bool {
			return score.PlayerID != playerID
		})
		remaining := make([]Player, 0, len(document.Players))
		for _, candidate := range document.Players {
			if candidate.ID != playerID {
				remaining = append(remaining, candidate)
			}
		}
		document.Players = remaining
		return activityDraft{
			activityType: ActivityPlayerRemoved,
			message:      playerRemovedMessage(player.Name),
		}, nil
	})
}

// AddGame creates a game with a case-insensitively unique name.
func (service *Service) AddGame(ctx context.Context, name string) (game Game, err error) {
	defer service.observe(opAddGame, service.now(), &err)
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Game{}, service.fail(opAddGame, reasonInvalidName, ErrInvalidArgument, errEmptyName)
	}

	err = service.mutate(ctx, opAddGame, func(document *Document, now time.Time) (activityDraft, error) {
		for _, existing := range document.Games {
			if sameName(existing.Name, trimmed) {
				return activityDraft{}, service.fail(opAddGame, "name_conflict", ErrConflict, nil, zap.String(fieldName, trimmed))
			}
		}
		id, idErr := service.idProvider.NewID()
		if idErr != nil {
			return activityDraft{}, service.fail(opAddGame, reasonIDFailed, ErrStorage, idErr)
		}
		game = Game{ID: id, Name: trimmed, CreatedAt: now}
		document.Games = append(document.Games, game)
		return activityDraft{
			activityType: ActivityGameAdded,
			message:      gameAddedMessage(trimmed),
			gameID:       game.ID,
		}, nil
	})
	if err != nil {
		return Game{}, err
	}
	return game, nil
}

// RemoveGame deletes a game together with every score referencing it.
func (service *Service) RemoveGame(ctx context.Context, gameID string) (err error) {
	defer service.observe(opRemoveGame, service.now(), &err)
	return service.mutate(ctx, opRemoveGame, func(document *Document, _ time.Time) (activityDraft, error) {
		game, ok := document.findGame(gameID)
		if !ok {
			return activityDraft{}, service.fail(opRemoveGame, "game_not_found", ErrNotFound, nil, zap.String(fieldGameID, gameID))
		}
		document.Scores = filterScores(document.Scores, func(score Score) bool {
			return score.GameID != gameID
		})
		remaining := make([]Game, 0, len(document.Games))
		for _, candidate := range document.Games {
			if candidate.ID != gameID {
				remaining = append(remaining, candidate)
			}
		}
		document.Games = remaining
		return activityDraft{
			activityType: ActivityGameRemoved,
			message:      gameRemovedMessage(game.Name),
		}, nil
	})
}

type scoreWriteMode int

const (
	scoreWriteUpsert scoreWriteMode = iota
	scoreWriteCreate
	scoreWriteReset
)

// UpsertScore creates or updates the score for the (player, game) pair.
func (service *Service) UpsertScore(ctx context.Context, playerID, gameID string, value int64) (score Score, err error) {
	defer service.observe(opUpsertScore, service.now(), &err)
	return service.writeScore(ctx, opUpsertScore, scoreWriteUpsert, playerID, gameID, value)
}

// CreateScore records a score only when the pair has none yet.
func (service *Service) CreateScore(ctx context.Context, playerID, gameID string, value int64) (score Score, err error) {
	defer service.observe(opCreateScore, service.now(), &err)
	return service.writeScore(ctx, opCreateScore, scoreWriteCreate, playerID, gameID, value)
}

// ResetScore sets an existing score back to zero.
func (service *Service) ResetScore(ctx context.Context, playerID, gameID string) (score Score, err error) {
	defer service.observe(opResetScore, service.now(), &err)
	return service.writeScore(ctx, opResetScore, scoreWriteReset, playerID, gameID, 0)
}

func (service *Service) writeScore(ctx context.Context, operation string, mode scoreWriteMode, playerID, gameID string, value int64) (Score, error) {
	if strings.TrimSpace(playerID) == "" || strings.TrimSpace(gameID) == "" {
		return Score{}, service.fail(operation, "missing_reference", ErrInvalidArgument, errMissingReference)
	}
	if value < 0 {
		return Score{}, service.fail(operation, "negative_score", ErrInvalidArgument, errNegativeScore)
	}
	if value > MaxScore {
		return Score{}, service.fail(operation, "score_too_large", ErrInvalidArgument, errScoreTooLarge)
	}

	var result Score
	err := service.mutate(ctx, operation, func(document *Document, now time.Time) (activityDraft, error) {
		fields := []zap.Field{zap.String(fieldPlayerID, playerID), zap.String(fieldGameID, gameID)}
		player, playerFound := document.findPlayer(playerID)
		game, gameFound := document.findGame(gameID)
		if !playerFound || !gameFound {
			return activityDraft{}, service.fail(operation, "reference_not_found", ErrNotFound, nil, fields...)
		}

		index := document.scoreIndex(playerID, gameID)
		switch {
		case index >= 0 && mode == scoreWriteCreate:
			return activityDraft{}, service.fail(operation, "score_exists", ErrConflict, nil, fields...)
		case index < 0 && mode == scoreWriteReset:
			return activityDraft{}, service.fail(operation, "score_not_found", ErrNotFound, nil, fields...)
		case index >= 0:
			document.Scores[index].Score = value
			document.Scores[index].UpdatedAt = now
			result = document.Scores[index]
		default:
			id, idErr := service.idProvider.NewID()
			if idErr != nil {
				return activityDraft{}, service.fail(operation, reasonIDFailed, ErrStorage, idErr)
			}
			result = Score{ID: id, PlayerID: playerID, GameID: gameID, Score: value, UpdatedAt: now}
			document.Scores = append(document.Scores, result)
		}

		return activityDraft{
			activityType: ActivityScoreUpdated,
			message:      scoreUpdatedMessage(player.Name, value, game.Name),
			playerID:     playerID,
			gameID:       gameID,
		}, nil
	})
	if err != nil {
		return Score{}, err
	}
	return result, nil
}

type activityDraft struct {
	activityType ActivityType
	message      string
	playerID     string
	gameID       string
}

type mutation func(document *Document, now time.Time) (activityDraft, error)

// mutate runs one serialized load-mutate-save cycle and publishes the resulting activity.
// Publishing happens under the writer lock so subscribers see activities in log order.
func (service *Service) mutate(ctx context.Context, operation string, apply mutation) error {
	if service.store == nil {
		return service.fail(operation, reasonMissing, ErrStorage, errMissingStore)
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	document, err := service.loadLocked(ctx, operation)
	if err != nil {
		return err
	}

	now := service.now().UTC()
	draft, err := apply(&document, now)
	if err != nil {
		return err
	}

	activityID, err := service.idProvider.NewID()
	if err != nil {
		return service.fail(operation, reasonIDFailed, ErrStorage, err)
	}
	activity := Activity{
		ID:        activityID,
		Type:      draft.activityType,
		Message:   draft.message,
		Timestamp: now,
		PlayerID:  draft.playerID,
		GameID:    draft.gameID,
	}
	document.Activities = prependActivity(document.Activities, activity)

	if err := service.store.Save(ctx, document); err != nil {
		return service.fail(operation, reasonSaveFailed, classifyStoreError(err), err)
	}
	service.publish(ctx, activity)
	return nil
}

func (service *Service) read(ctx context.Context, operation string) (Document, error) {
	if service.store == nil {
		return Document{}, service.fail(operation, reasonMissing, ErrStorage, errMissingStore)
	}
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.loadLocked(ctx, operation)
}

// loadLocked falls back to seeding when the store has never been initialized.
func (service *Service) loadLocked(ctx context.Context, operation string) (Document, error) {
	document, err := service.store.Load(ctx)
	if errors.Is(err, ErrDocumentMissing) {
		service.logger.Warn("leaderboard document missing, seeding", zap.String("operation", operation))
		if _, seedErr := service.store.Initialize(ctx, SeedDocument(service.now())); seedErr != nil {
			return Document{}, service.fail(operation, reasonSeedFailed, classifyStoreError(seedErr), seedErr)
		}
		document, err = service.store.Load(ctx)
	}
	if err != nil {
		return Document{}, service.fail(operation, reasonLoadFailed, classifyStoreError(err), err)
	}
	return document.clone(), nil
}

func (service *Service) publish(ctx context.Context, activity Activity) {
	for _, publisher := range service.publishers {
		if err := publisher.PublishActivity(ctx, activity); err != nil {
			service.loggerOrDefault().Warn("activity publish failed",
				zap.String("activity_id", activity.ID),
				zap.String("activity_type", string(activity.Type)),
				zap.Error(err))
		}
	}
}

func (service *Service) observe(operation string, started time.Time, errPointer *error) {
	if service == nil || service.observer == nil {
		return
	}
	var err error
	if errPointer != nil {
		err = *errPointer
	}
	service.observer.ObserveCommand(operation, err, service.now().Sub(started))
}

func (service *Service) loggerOrDefault() *zap.Logger {
	if service == nil || service.logger == nil {
		return noOpLogger
	}
	return service.logger
}

// fail logs the failure once and returns the matching ServiceError.
func (service *Service) fail(operation, reason string, kind, cause error, fields ...zap.Field) error {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if cause != nil {
		attrs = append(attrs, zap.Error(cause))
	}
	attrs = append(attrs, fields...)

	switch kind {
	case ErrStorage, ErrCorruptState:
		service.loggerOrDefault().Error("leaderboard service error", attrs...)
	default:
		service.loggerOrDefault().Warn("leaderboard request rejected", attrs...)
	}
	return newServiceError(operation, reason, kind, cause)
}

func filterScores(scores []Score, keep func(Score) bool) []Score {
	filtered := make([]Score, 0, len(scores))
	for _, score := range scores {
		if keep(score) {
			filtered = append(filtered, score)
		}
	}
	return filtered
}

func (service *Service) now() time.Time {
	if service == nil || service.clock == nil {
		return time.Now()
	}
	return service.clock()
}
