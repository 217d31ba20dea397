package discord

import (
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the background sweeps: the daily decay sweep, the nightly
// streak resolution, the periodic reward-role rotation and the per-minute
// voice XP sweep. Sweeps iterate guilds in scheduler goroutines and never
// block the gateway event handlers.
type Scheduler struct {
	inner gocron.Scheduler
}

func NewScheduler(d *Discord) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	// Decay runs first, streak resolution an hour later; both operate on
	// yesterday's finalized activity.
	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(d.cfg.DecaySweepHour), 0, 0),
		)),
		gocron.NewTask(func() {
			now := time.Now()
			d.eachGuild(func(_ string, mods *guildModules) {
				mods.leveling.RunDecaySweep(now)
			})
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(d.cfg.StreakSweepHour), 0, 0),
		)),
		gocron.NewTask(func() {
			now := time.Now()
			d.eachGuild(func(_ string, mods *guildModules) {
				mods.leveling.RunStreakSweep(now)
			})
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			d.eachGuild(func(_ string, mods *guildModules) {
				mods.leveling.RunTopRoleRotation()
			})
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			for _, vs := range d.voice.Snapshot() {
				mods, ok := d.modulesFor(vs.GuildSnowflake)
				if !ok {
					continue
				}
				mods.leveling.GrantVoiceMinute(vs.UserSnowflake, vs.ChannelSnowflake)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return &Scheduler{inner: sched}, nil
}

func (s *Scheduler) Shutdown() {
	_ = s.inner.Shutdown()
}
