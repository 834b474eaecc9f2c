package world

// Simulation systems run once per tick in a fixed order: movement
// integration, NPC AI, combat resolution, regen, expiry. The order is
// part of the determinism contract and never varies across ticks.

// BeginTick advances the tick counter; the scheduler calls it before
// applying commands so every event carries the right tick.
func (w *World) BeginTick() uint64 {
	w.tick++
	return w.tick
}

// RunSystems advances the simulation one tick after commands have been
// applied.
func (w *World) RunSystems() {
	w.movementSystem()
	w.aiSystem()
	w.combatSystem()
	w.regenSystem()
	w.expirySystem()
}

// movementSystem integrates every pending move intent by one step.
func (w *World) movementSystem() {
	w.store.Each(func(id EntityID) {
		intent, _ := w.store.MoveIntent(id)
		if intent == nil {
			return
		}
		pos, _ := w.store.Position(id)
		if pos == nil {
			return
		}

		dx := intent.TargetX - pos.X
		dy := intent.TargetY - pos.Y
		d := dist(pos.X, pos.Y, intent.TargetX, intent.TargetY)

		if d <= intent.Speed {
			pos.X = intent.TargetX
			pos.Y = intent.TargetY
			w.store.ClearMoveIntent(id)
		} else {
			pos.X += dx / d * intent.Speed
			pos.Y += dy / d * intent.Speed
		}

		w.emit(Event{
			Type:   EventMoved,
			Entity: id,
			Moved:  &MovedEvent{ZoneID: pos.ZoneID, X: pos.X, Y: pos.Y},
		})
	})
}

// aiSystem makes NPC decisions: chase a combat target, otherwise wander
// near home every few ticks.
func (w *World) aiSystem() {
	w.store.Each(func(id EntityID) {
		ai, _ := w.store.AIState(id)
		if ai == nil {
			return
		}
		pos, _ := w.store.Position(id)
		if pos == nil {
			return
		}

		// Chasing: keep the intent pointed at the target while it
		// lives; combat resolution handles the hit itself.
		if combat, _ := w.store.CombatTarget(id); combat != nil {
			targetPos, err := w.store.Position(combat.Target)
			if err != nil || targetPos == nil || targetPos.ZoneID != pos.ZoneID {
				w.store.ClearCombatTarget(id)
				w.store.ClearMoveIntent(id)
				return
			}
			stats, _ := w.store.Stats(id)
			if stats != nil && dist(pos.X, pos.Y, targetPos.X, targetPos.Y) > stats.AttackRange {
				w.store.SetMoveIntent(id, MoveIntent{
					TargetX: targetPos.X,
					TargetY: targetPos.Y,
					Speed:   w.cfg.NpcMoveSpeed,
				})
			} else {
				w.store.ClearMoveIntent(id)
			}
			return
		}

		if w.tick < ai.nextDecisionTick {
			return
		}
		ai.nextDecisionTick = w.tick + w.cfg.AIDecisionGap

		if ai.WanderRadius <= 0 {
			return
		}
		wx := ai.Home.X + (w.rng.Float32()*2-1)*ai.WanderRadius
		wy := ai.Home.Y + (w.rng.Float32()*2-1)*ai.WanderRadius
		w.store.SetMoveIntent(id, MoveIntent{
			TargetX: clamp(wx, 0, w.cfg.ZoneExtent),
			TargetY: clamp(wy, 0, w.cfg.ZoneExtent),
			Speed:   w.cfg.NpcMoveSpeed,
		})
	})
}

// combatSystem lands one hit per tick for every attacker whose target
// is alive, in the same zone, and in range.
func (w *World) combatSystem() {
	w.store.Each(func(id EntityID) {
		combat, _ := w.store.CombatTarget(id)
		if combat == nil {
			return
		}

		stats, _ := w.store.Stats(id)
		pos, _ := w.store.Position(id)
		if stats == nil || pos == nil {
			return
		}

		targetStats, err := w.store.Stats(combat.Target)
		if err != nil || targetStats == nil {
			w.store.ClearCombatTarget(id)
			return
		}
		targetPos, _ := w.store.Position(combat.Target)
		if targetPos == nil || targetPos.ZoneID != pos.ZoneID {
			w.store.ClearCombatTarget(id)
			return
		}
		if dist(pos.X, pos.Y, targetPos.X, targetPos.Y) > stats.AttackRange {
			return // still closing in
		}

		amount := stats.AttackPower
		if amount > targetStats.Health {
			amount = targetStats.Health
		}
		targetStats.Health -= amount
		targetStats.lastDamagedTick = w.tick
		stats.lastDamagedTick = w.tick

		w.emit(Event{
			Type:   EventDamaged,
			Entity: combat.Target,
			Damaged: &DamagedEvent{
				Attacker: id,
				Amount:   amount,
				Health:   targetStats.Health,
				ZoneID:   targetPos.ZoneID,
			},
		})

		// NPCs retaliate against whoever hit them.
		if ai, _ := w.store.AIState(combat.Target); ai != nil {
			if existing, _ := w.store.CombatTarget(combat.Target); existing == nil {
				w.store.SetCombatTarget(combat.Target, CombatTarget{Target: id})
			}
		}

		if targetStats.Health == 0 {
			target := combat.Target
			w.store.ClearCombatTarget(id)
			w.killEntity(target, id)
		}
	})
}

// killEntity resolves a death: players respawn at the configured point
// via a two-phase zone transfer; NPCs drop loot and despawn.
func (w *World) killEntity(id, killer EntityID) {
	w.emit(Event{Type: EventDied, Entity: id})

	owner, _ := w.store.Owner(id)
	if owner != nil {
		w.respawnPlayer(id)
		return
	}

	// Drop loot where the NPC fell.
	pos, _ := w.store.Position(id)
	loot, _ := w.store.Loot(id)
	if pos != nil && loot != nil {
		drop := w.store.Create(EntityItemDrop)
		w.store.SetPosition(drop, *pos)
		w.store.SetLoot(drop, *loot)
		w.store.SetExpiry(drop, Expiry{AtTick: w.tick + w.cfg.ItemExpiry})
		w.store.SetNamed(drop, Named{Name: "dropped item"})
		w.emit(Event{Type: EventSpawned, Entity: drop, Spawned: ptr(w.spawnData(drop))})
	}

	w.store.Destroy(id)
	w.emit(Event{Type: EventDespawned, Entity: id})
}

// respawnPlayer teleports a dead player to the respawn point with full
// health. The zone transfer is two-phase: the leave event fully
// precedes the enter event so no observer sees the entity twice.
func (w *World) respawnPlayer(id EntityID) {
	pos, _ := w.store.Position(id)
	stats, _ := w.store.Stats(id)
	if pos == nil || stats == nil {
		return
	}

	oldZone := pos.ZoneID
	w.emit(Event{Type: EventZoneLeft, Entity: id, Zone: &ZoneEvent{ZoneID: oldZone}})

	pos.ZoneID = w.cfg.RespawnZone
	pos.X = w.cfg.RespawnX
	pos.Y = w.cfg.RespawnY
	stats.Health = stats.MaxHealth
	w.store.ClearMoveIntent(id)
	w.store.ClearCombatTarget(id)

	w.emit(Event{
		Type:   EventZoneEnter,
		Entity: id,
		Zone:   &ZoneEvent{ZoneID: pos.ZoneID, Spawn: w.spawnData(id)},
	})
}

// regenSystem heals entities that have been out of combat long enough.
func (w *World) regenSystem() {
	w.store.Each(func(id EntityID) {
		stats, _ := w.store.Stats(id)
		if stats == nil || stats.Regen == 0 || stats.Health >= stats.MaxHealth {
			return
		}
		if w.tick-stats.lastDamagedTick < w.cfg.RegenDelay {
			return
		}

		stats.Health += stats.Regen
		if stats.Health > stats.MaxHealth {
			stats.Health = stats.MaxHealth
		}

		pos, _ := w.store.Position(id)
		if pos == nil {
			return
		}
		w.emit(Event{
			Type:   EventDamaged,
			Entity: id,
			Damaged: &DamagedEvent{
				Amount: 0, // pure health report
				Health: stats.Health,
				ZoneID: pos.ZoneID,
			},
		})
	})
}

// expirySystem removes item drops past their lifetime.
func (w *World) expirySystem() {
	w.store.Each(func(id EntityID) {
		exp, _ := w.store.Expiry(id)
		if exp == nil || w.tick < exp.AtTick {
			return
		}
		w.store.Destroy(id)
		w.emit(Event{Type: EventDespawned, Entity: id})
	})
}

// DrainEvents returns this tick's event journal and resets it.
func (w *World) DrainEvents() []Event {
	evs := w.events
	w.events = nil
	return evs
}
