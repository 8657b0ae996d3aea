package services

import (
	"time"

	"lotto/domain/entities"
)

// drawCloseTime is the instant a draw stops accepting plays
func drawCloseTime(setting *entities.GameSetting, drawDate entities.DrawDateParts, loc *time.Location) (time.Time, error) {
	hour, minute, err := setting.StopTime()
	if err != nil {
		return time.Time{}, err
	}
	return drawDate.At(hour, minute, loc), nil
}

// checkDrawClosed fails with ErrDrawStillOpen while the draw accepts plays.
// Results may only be recorded or settled once admission has stopped.
func checkDrawClosed(now time.Time, setting *entities.GameSetting, gameType entities.GameType, gameNumber string, loc *time.Location) error {
	drawDate, err := entities.ParseGameNumber(gameNumber)
	if err != nil {
		return err
	}
	closesAt, err := drawCloseTime(setting, drawDate, loc)
	if err != nil {
		return &entities.ValidationError{Field: "gameStopHour", Message: err.Error()}
	}
	if now.In(loc).Before(closesAt) {
		return &entities.ConflictError{Kind: entities.ConflictDrawStillOpen, Key: entities.DrawKey(gameType, gameNumber)}
	}
	return nil
}
