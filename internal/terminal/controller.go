package terminal

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/models"
	"github.com/stwalsh4118/prompter/internal/prompter"
	"github.com/stwalsh4118/prompter/internal/settings"
)

const (
	speedStep  = 5
	fontStep   = 4
	scrollRows = 3
)

// SettingsStore persists settings changes made from the keyboard
type SettingsStore interface {
	Update(ctx context.Context, patch settings.Patch) (*models.Settings, error)
}

// Controller applies keyboard actions to a session
type Controller struct {
	session  *prompter.Session
	store    SettingsStore
	settings models.Settings
}

// NewController creates a controller. A nil store keeps changes in memory.
func NewController(session *prompter.Session, store SettingsStore, current models.Settings) *Controller {
	return &Controller{
		session:  session,
		store:    store,
		settings: current,
	}
}

// Settings returns the settings the session is using
func (c *Controller) Settings() models.Settings {
	return c.settings
}

// Handle performs one action. It reports whether the user asked to quit.
func (c *Controller) Handle(ctx context.Context, action Action) (bool, error) {
	if action == ActionQuit {
		return true, nil
	}
	if action == ActionNone {
		return false, nil
	}

	if _, err := c.session.Activity(); err != nil {
		return false, err
	}

	var err error
	switch action {
	case ActionToggle:
		_, err = c.session.Toggle()
	case ActionScrollUp, ActionScrollDown:
		err = c.scroll(action)
	default:
		err = c.changeSettings(ctx, action)
	}
	return false, err
}

func (c *Controller) scroll(action Action) error {
	snap, err := c.session.Snapshot()
	if err != nil {
		return err
	}
	step := scrollRows * float64(c.settings.FontSize) * lineHeightEm
	if action == ActionScrollUp {
		step = -step
	}
	_, err = c.session.ScrollTo(snap.ScrollTop + step)
	return err
}

func (c *Controller) changeSettings(ctx context.Context, action Action) error {
	var patch settings.Patch
	switch action {
	case ActionSpeedUp, ActionSpeedDown:
		speed := c.settings.ScrollSpeed + speedStep
		if action == ActionSpeedDown {
			speed = c.settings.ScrollSpeed - speedStep
		}
		speed = min(max(speed, models.MinScrollSpeed), models.MaxScrollSpeed)
		patch.ScrollSpeed = &speed
	case ActionFontUp, ActionFontDown:
		size := c.settings.FontSize + fontStep
		if action == ActionFontDown {
			size = c.settings.FontSize - fontStep
		}
		size = min(max(size, models.MinFontSize), models.MaxFontSize)
		patch.FontSize = &size
	case ActionMirror:
		mirrored := !c.settings.IsMirrored
		patch.IsMirrored = &mirrored
	case ActionTheme:
		dark := !c.settings.IsDarkMode
		patch.IsDarkMode = &dark
	default:
		return fmt.Errorf("unsupported action %s", action)
	}

	next := patch.Apply(c.settings)
	if c.store != nil {
		stored, err := c.store.Update(ctx, patch)
		if err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		next = *stored
	}

	if _, err := c.session.ApplySettings(next); err != nil {
		return err
	}
	c.settings = next

	logger.Log.Debug().
		Str("action", action.String()).
		Int("scroll_speed", next.ScrollSpeed).
		Int("font_size", next.FontSize).
		Bool("is_mirrored", next.IsMirrored).
		Bool("is_dark_mode", next.IsDarkMode).
		Msg("Prompter settings changed")
	return nil
}
