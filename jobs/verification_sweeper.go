package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/FoldlyDev/foldly-sub005/services"
	"github.com/FoldlyDev/foldly-sub005/utils"
)

// VerificationSweeper periodically clears expired editor verification
// codes so a stale code can never be replayed.
type VerificationSweeper struct {
	permissionService *services.PermissionService
	scheduler         *gocron.Scheduler
	interval          time.Duration
}

func NewVerificationSweeper(permissionService *services.PermissionService, interval time.Duration) *VerificationSweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &VerificationSweeper{
		permissionService: permissionService,
		scheduler:         gocron.NewScheduler(time.UTC),
		interval:          interval,
	}
}

// Start runs one sweep immediately, then on the configured interval.
func (vs *VerificationSweeper) Start() error {
	_, err := vs.scheduler.Every(vs.interval).StartImmediately().Do(vs.sweep)
	if err != nil {
		return fmt.Errorf("failed to schedule verification sweeper: %w", err)
	}
	vs.scheduler.StartAsync()
	utils.LogInfo(fmt.Sprintf("verification sweeper running every %s", vs.interval))
	return nil
}

func (vs *VerificationSweeper) Stop() {
	vs.scheduler.Stop()
}

func (vs *VerificationSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cleared, err := vs.permissionService.SweepExpiredCodes(ctx)
	if err != nil {
		utils.LogError("verification sweep failed", err)
		return
	}
	if cleared > 0 {
		utils.LogInfo(fmt.Sprintf("cleared %d expired verification codes", cleared))
	}
}
