// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

type groupKind uint8

const (
	groupSync groupKind = iota
	groupRace
	groupRush
)

// joinGroup tracks the children of one sync, race, or rush and decides
// the owner's resume value. The owner stays parked until the group
// resolves: deliver an outcome, or cancel the owner.
type joinGroup struct {
	kind    groupKind
	ownerID TaskID

	kids        []TaskID
	results     []kont.Erased
	pending     int
	winner      bool
	winval      kont.Erased
	anyCanceled bool

	resolved    bool
	cancelOwner bool
	outcome     kont.Resumed
}

// launchGroup creates the group's children as structurally-owned tasks
// of owner and resumes each exactly once, in declaration order. When a
// child settles during those first steps the group may resolve before
// the owner ever parks; launchGroup then answers inline. Otherwise the
// owner parks until groupChildSettled resolves the group.
func (s *Scheduler) launchGroup(owner *task, kind groupKind, children []kont.Expr[kont.Erased]) (kont.Resumed, error) {
	if len(children) == 0 {
		// Race and Rush reject empty child lists at construction,
		// so only an empty Sync reaches this point.
		return wakeBox{v: []kont.Erased{}}, nil
	}
	g := &joinGroup{
		kind:    kind,
		ownerID: owner.id,
		kids:    make([]TaskID, 0, len(children)),
		results: make([]kont.Erased, len(children)),
		pending: len(children),
	}
	for _, body := range children {
		c := s.create(body, owner)
		c.group = g
		c.groupIndex = len(g.kids)
		g.kids = append(g.kids, c.id)
	}
	for _, id := range g.kids {
		if c := s.lookup(id); c != nil {
			s.stepTask(c)
		}
	}
	if g.cancelOwner {
		s.unwind(owner)
		return nil, iox.ErrWouldBlock
	}
	if g.resolved {
		return g.outcome, nil
	}
	owner.phase = phaseParked
	return nil, iox.ErrWouldBlock
}

// groupChildSettled folds one settled child into its group. Called
// from settle, with c.terminal and c.result already final.
func (s *Scheduler) groupChildSettled(c *task) {
	g := c.group
	c.group = nil
	g.pending--
	completed := c.terminal == StateCompleted
	switch g.kind {
	case groupSync:
		if completed {
			g.results[c.groupIndex] = c.result
		} else if !g.anyCanceled {
			g.anyCanceled = true
			s.cancelGroupKids(g, TaskID{})
		}
		if g.pending == 0 {
			if g.anyCanceled {
				s.resolveCancel(g)
			} else {
				s.resolveDeliver(g, wakeBox{v: g.results})
			}
		}
	case groupRace:
		if completed && !g.winner {
			g.winner = true
			g.winval = c.result
			s.cancelGroupKids(g, c.id)
		}
		if g.pending == 0 {
			if g.winner {
				s.resolveDeliver(g, wakeBox{v: g.winval})
			} else {
				s.resolveCancel(g)
			}
		}
	case groupRush:
		if completed && !g.winner {
			g.winner = true
			s.dissolveRush(g, c.id)
			s.resolveDeliver(g, wakeBox{v: c.result})
			return
		}
		if g.pending == 0 && !g.winner {
			s.resolveCancel(g)
		}
	}
}

// cancelGroupKids cancels every live child of the group except one.
func (s *Scheduler) cancelGroupKids(g *joinGroup, except TaskID) {
	for _, id := range g.kids {
		if id == except {
			continue
		}
		c := s.lookup(id)
		if c == nil {
			continue
		}
		raiseCancel(c.rec)
		if c.phase == phaseParked {
			s.wakeForUnwind(c)
		} else {
			s.enqueue(c)
		}
	}
}

// resolveDeliver resumes the owner with the group's outcome. An owner
// still mid-launch picks the stashed outcome up inline; an owner that
// unwound while parked ignores it.
func (s *Scheduler) resolveDeliver(g *joinGroup, v kont.Resumed) {
	g.resolved = true
	g.outcome = v
	if owner := s.lookup(g.ownerID); owner != nil {
		s.wake(owner, v)
	}
}

// resolveCancel cancels the owner instead of resuming it.
func (s *Scheduler) resolveCancel(g *joinGroup) {
	g.resolved = true
	g.cancelOwner = true
	owner := s.lookup(g.ownerID)
	if owner == nil {
		return
	}
	raiseCancel(owner.rec)
	s.wakeForUnwind(owner)
}

// dissolveRush detaches the losing children from a decided rush. They
// stay structurally owned by the owner and keep running; the owner
// cancels them when it settles.
func (s *Scheduler) dissolveRush(g *joinGroup, winner TaskID) {
	for _, id := range g.kids {
		if id == winner {
			continue
		}
		if c := s.lookup(id); c != nil && c.group == g {
			c.group = nil
		}
	}
}
