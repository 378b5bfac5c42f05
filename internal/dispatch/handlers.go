package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/discord"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/domain"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/render"
)

// One handler per action kind. The common shape: validate required payload
// fields (missing_* outcomes), resolve the destination (*_unavailable soft
// failures), build the artifact, deliver through the retrier. Dispatch-level
// failures are terminal for the item; only the status report is retried.

func (d *Dispatcher) handleWarAlert(ctx context.Context, item domain.QueueItem) domain.DispatchOutcome {
	var p domain.WarAlertPayload
	if err := item.DecodePayload(&p); err != nil {
		return domain.Failed(domain.ReasonHandlerError)
	}
	if p.ChannelID == "" {
		return domain.Failed(domain.ReasonMissingChannel)
	}
	if p.Attacker == nil || p.Defender == nil {
		return domain.Failed(domain.ReasonMissingNation)
	}

	ch, ok := d.channel(ctx, p.ChannelID)
	if !ok {
		return domain.Failed(domain.ReasonChannelUnavailable)
	}

	if err := d.send(ctx, ch, render.WarAlert(&p, item.CreatedAt)); err != nil {
		d.logger.Error("war alert send failed", zap.String("id", item.ID), zap.Error(err))
		return domain.Failed(domain.ReasonSendFailed)
	}
	return domain.Completed()
}

func (d *Dispatcher) handleAllianceDeparture(ctx context.Context, item domain.QueueItem) domain.DispatchOutcome {
	var p domain.AllianceDeparturePayload
	if err := item.DecodePayload(&p); err != nil {
		return domain.Failed(domain.ReasonHandlerError)
	}
	if p.ChannelID == "" {
		return domain.Failed(domain.ReasonMissingChannel)
	}
	if p.Nation == nil {
		return domain.Failed(domain.ReasonMissingNation)
	}

	ch, ok := d.channel(ctx, p.ChannelID)
	if !ok {
		return domain.Failed(domain.ReasonChannelUnavailable)
	}

	if err := d.send(ctx, ch, render.AllianceDeparture(&p, item.CreatedAt)); err != nil {
		d.logger.Error("departure notice send failed", zap.String("id", item.ID), zap.Error(err))
		return domain.Failed(domain.ReasonSendFailed)
	}
	return domain.Completed()
}

func (d *Dispatcher) handleInactivityAlert(ctx context.Context, item domain.QueueItem) domain.DispatchOutcome {
	var p domain.InactivityAlertPayload
	if err := item.DecodePayload(&p); err != nil {
		return domain.Failed(domain.ReasonHandlerError)
	}
	if p.ChannelID == "" {
		return domain.Failed(domain.ReasonMissingChannel)
	}
	if p.UserID == "" {
		return domain.Failed(domain.ReasonMissingUser)
	}

	ch, ok := d.channel(ctx, p.ChannelID)
	if !ok {
		return domain.Failed(domain.ReasonChannelUnavailable)
	}

	if err := d.send(ctx, ch, render.InactivityAlert(&p)); err != nil {
		d.logger.Error("inactivity alert send failed", zap.String("id", item.ID), zap.Error(err))
		return domain.Failed(domain.ReasonSendFailed)
	}
	return domain.Completed()
}

// handleRoleRemoval strips every role except the guild's default role from a
// departed member. An empty removal set is a successful no-op.
func (d *Dispatcher) handleRoleRemoval(ctx context.Context, item domain.QueueItem) domain.DispatchOutcome {
	var p domain.RoleRemovalPayload
	if err := item.DecodePayload(&p); err != nil {
		return domain.Failed(domain.ReasonHandlerError)
	}
	if p.UserID == "" {
		return domain.Failed(domain.ReasonMissingUser)
	}

	guild, err := d.resolver.Guild(ctx, d.guildID)
	if err != nil || guild == nil {
		d.logger.Warn("guild unavailable", zap.String("guild_id", d.guildID), zap.Error(err))
		return domain.Failed(domain.ReasonGuildUnavailable)
	}

	member, err := guild.Member(ctx, p.UserID)
	if err != nil || member == nil {
		d.logger.Warn("member unavailable",
			zap.String("id", item.ID),
			zap.String("user_id", p.UserID),
			zap.Error(err),
		)
		return domain.Failed(domain.ReasonMemberUnavailable)
	}

	everyone := guild.EveryoneRoleID()
	var toRemove []string
	for _, roleID := range member.RoleIDs() {
		if roleID != everyone {
			toRemove = append(toRemove, roleID)
		}
	}
	if len(toRemove) == 0 {
		return domain.Completed()
	}

	err = d.retrier.Do(ctx, func(ctx context.Context) error {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
		return member.RemoveRoles(ctx, toRemove)
	})
	if err != nil {
		d.logger.Error("role removal failed",
			zap.String("id", item.ID),
			zap.String("user_id", p.UserID),
			zap.Int("roles", len(toRemove)),
			zap.Error(err),
		)
		return domain.Failed(domain.ReasonRoleRemovalFailed)
	}
	return domain.Completed()
}

// handleBeige is bimodal: a nations list becomes one or more chunked
// plain-text summaries, a single nation becomes a rich exit artifact.
func (d *Dispatcher) handleBeige(ctx context.Context, item domain.QueueItem) domain.DispatchOutcome {
	var p domain.BeigePayload
	if err := item.DecodePayload(&p); err != nil {
		return domain.Failed(domain.ReasonHandlerError)
	}
	if p.ChannelID == "" {
		return domain.Failed(domain.ReasonMissingChannel)
	}
	if len(p.Nations) == 0 && p.Nation == nil {
		return domain.Failed(domain.ReasonMissingNation)
	}

	ch, ok := d.channel(ctx, p.ChannelID)
	if !ok {
		return domain.Failed(domain.ReasonChannelUnavailable)
	}

	if len(p.Nations) > 0 {
		block := render.BeigeSummaryLines(p.Nations)
		for _, chunk := range render.ChunkLines(block, d.chunkLimit) {
			if err := d.send(ctx, ch, &discord.Artifact{Content: chunk}); err != nil {
				d.logger.Error("beige summary send failed", zap.String("id", item.ID), zap.Error(err))
				return domain.Failed(domain.ReasonSendFailed)
			}
		}
		return domain.Completed()
	}

	if err := d.send(ctx, ch, render.BeigeExit(p.Nation)); err != nil {
		d.logger.Error("beige exit send failed", zap.String("id", item.ID), zap.Error(err))
		return domain.Failed(domain.ReasonSendFailed)
	}
	return domain.Completed()
}

// handleWarRoom creates a coordination thread in a forum channel, posts the
// target briefing as its opening message, then pings the assigned members in
// chunked batches. An empty assignment list is not an error: the thread and
// briefing are still worth having before members are allocated. Thread
// creation is rate-limit-prone, so every platform call here runs through
// the retrier.
func (d *Dispatcher) handleWarRoom(ctx context.Context, item domain.QueueItem) domain.DispatchOutcome {
	var p domain.WarRoomPayload
	if err := item.DecodePayload(&p); err != nil {
		return domain.Failed(domain.ReasonHandlerError)
	}
	if p.ChannelID == "" {
		return domain.Failed(domain.ReasonMissingChannel)
	}
	if p.Target == nil {
		return domain.Failed(domain.ReasonMissingTarget)
	}

	ch, ok := d.channel(ctx, p.ChannelID)
	if !ok {
		return domain.Failed(domain.ReasonChannelUnavailable)
	}
	forum, ok := ch.(discord.ForumChannel)
	if !ok {
		d.logger.Warn("war room channel is not thread-capable",
			zap.String("id", item.ID),
			zap.String("channel_id", p.ChannelID),
		)
		return domain.Failed(domain.ReasonChannelUnavailable)
	}

	var thread discord.Thread
	err := d.retrier.Do(ctx, func(ctx context.Context) error {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		thread, err = forum.CreateThread(ctx, render.WarRoomName(&p), render.WarRoomBriefing(&p))
		return err
	})
	if err != nil {
		d.logger.Error("war room thread creation failed", zap.String("id", item.ID), zap.Error(err))
		return domain.Failed(domain.ReasonThreadCreateFailed)
	}

	if len(p.MemberIDs) > 0 {
		mentions := render.MentionLines(p.MemberIDs)
		for _, chunk := range render.ChunkLines("⚔️ Assigned members:\n"+mentions, d.chunkLimit) {
			if err := d.sendThread(ctx, thread, &discord.Artifact{Content: chunk}); err != nil {
				d.logger.Error("war room assignment ping failed", zap.String("id", item.ID), zap.Error(err))
				return domain.Failed(domain.ReasonSendFailed)
			}
		}
	}
	return domain.Completed()
}
