package jobs

import (
	"fmt"
	"log"
	"sync"
	"time"

	"wmsbridge/protocol"
	"wmsbridge/statecache"
)

// Sequencer drives the inbound/outbound stock-move workflow: dashboard
// request -> robot dispatch -> completion -> inventory update -> delayed
// return, with an audit log entry at every transition. At most one job is
// in flight; a new request overwrites the old one.
type Sequencer struct {
	store       Storage
	fleet       Commander
	hub         Broadcaster
	cache       *statecache.Manager
	returnDelay time.Duration

	mu  sync.Mutex
	job *jobContext
}

// jobContext is the in-flight job plus the stock/pin names resolved at
// request time, so later log entries do not re-query storage.
type jobContext struct {
	Job
	stockName    string
	categoryName string
	pinName      string
}

func NewSequencer(store Storage, fleet Commander, hub Broadcaster, cache *statecache.Manager, returnDelay time.Duration) *Sequencer {
	return &Sequencer{
		store:       store,
		fleet:       fleet,
		hub:         hub,
		cache:       cache,
		returnDelay: returnDelay,
	}
}

// RequestStockMove starts a move: broadcast the moving state, resolve the
// stock's pin, dispatch the robot, and write the start log entry. Storage
// failures abort the dispatch with a logged error.
func (s *Sequencer) RequestStockMove(p protocol.StockMovePayload) {
	if p.Mode != protocol.ModeInbound && p.Mode != protocol.ModeOutbound {
		log.Printf("jobs: request rejected: unknown mode %q", p.Mode)
		return
	}

	robot := s.fleet.ActiveRobot()
	s.setRobotState(robot, StateMoving)

	stock, err := s.store.GetStockByID(p.StockID)
	if err != nil {
		log.Printf("jobs: stock %d lookup: %v", p.StockID, err)
		return
	}
	pin, err := s.store.GetPinByID(stock.PinID)
	if err != nil {
		log.Printf("jobs: pin %d lookup: %v", stock.PinID, err)
		return
	}

	ctx := &jobContext{
		Job:          Job{StockID: p.StockID, Amount: int(p.Amount), Mode: p.Mode},
		stockName:    stock.Name,
		categoryName: stock.CategoryName,
		pinName:      pin.Name,
	}
	s.mu.Lock()
	s.job = ctx
	s.mu.Unlock()

	s.fleet.SendUICommand(pin.Name)
	log.Printf("jobs: %s job started: stock=%s amount=%d pin=%s", p.Mode, stock.Name, ctx.Amount, pin.Name)

	s.appendLog(robot, ctx, startAction(p.Mode), stock.Quantity)
}

// CompleteStockMove applies the in-flight job's quantity change, notifies
// dashboards, and schedules the return trip after the configured delay.
// The delay is scheduled, never awaited, so the caller returns immediately.
func (s *Sequencer) CompleteStockMove() {
	s.mu.Lock()
	ctx := s.job
	s.mu.Unlock()
	if ctx == nil {
		log.Printf("jobs: complete ignored: no job in flight")
		return
	}

	stock, err := s.store.GetStockByID(ctx.StockID)
	if err != nil {
		log.Printf("jobs: stock %d lookup: %v", ctx.StockID, err)
		return
	}

	oldQty := stock.Quantity
	newQty := oldQty + ctx.Amount
	if ctx.Mode == protocol.ModeOutbound {
		newQty = oldQty - ctx.Amount
		if newQty < 0 {
			newQty = 0
		}
	}
	if err := s.store.SetStockQuantity(ctx.StockID, newQty); err != nil {
		log.Printf("jobs: stock %d update: %v", ctx.StockID, err)
		return
	}
	log.Printf("jobs: %s job completed: stock=%s %d→%d", ctx.Mode, ctx.stockName, oldQty, newQty)

	robot := s.fleet.ActiveRobot()
	action := fmt.Sprintf("%s (%d→%d)", completeAction(ctx.Mode), oldQty, newQty)
	s.appendLog(robot, ctx, action, newQty)

	// Signal only; clients re-fetch the inventory themselves.
	s.hub.Broadcast(protocol.NewEnvelope(protocol.TypeStockUpdate, struct{}{}))

	time.AfterFunc(s.returnDelay, func() { s.startReturn(ctx) })
}

// startReturn sends the robot home after the post-completion delay.
func (s *Sequencer) startReturn(ctx *jobContext) {
	robot := s.fleet.ActiveRobot()
	s.fleet.SendUICommand(homePin)
	s.setRobotState(robot, StateReturning)
	s.appendLog(robot, ctx, ActionReturnStart, ctx.Amount)
}

// HandleRobotStatus processes a robot_status message from the dashboard or
// bridge: arrival and return-completion write log entries, and every state
// lands in the cache and is rebroadcast. An empty name defaults to the
// active robot.
func (s *Sequencer) HandleRobotStatus(p protocol.RobotStatusPayload) {
	name := p.Name
	if name == "" {
		name = s.fleet.ActiveRobot()
	}

	s.mu.Lock()
	ctx := s.job
	s.mu.Unlock()

	switch p.State {
	case StateArrived:
		s.appendLog(name, ctx, ActionArrived, 0)
	case StateIdle:
		s.appendLog(name, ctx, ActionReturnComplete, 0)
	}

	s.setRobotState(name, p.State)
}

// UICommand forwards a manual command straight to the active robot,
// bypassing the job state machine.
func (s *Sequencer) UICommand(command string) {
	s.fleet.SendUICommand(command)
}

// OnArrived reacts to the bus-level ARRIVED:<pin> sentinel. Arrival at a
// storage pin logs it and marks the robot arrived; arrival at the wait pin
// closes the return leg.
func (s *Sequencer) OnArrived(robotName, pin string) {
	s.mu.Lock()
	ctx := s.job
	s.mu.Unlock()

	if pin == homePin {
		s.appendLog(robotName, ctx, ActionReturnComplete, 0)
		return
	}
	s.appendLog(robotName, ctx, ActionArrived, 0)
	s.setRobotState(robotName, StateArrived)
}

func (s *Sequencer) setRobotState(name, state string) {
	s.cache.SetStatus(name, state)
	s.hub.Broadcast(protocol.NewEnvelope(protocol.TypeRobotStatus, protocol.RobotStatusPayload{
		Name:  name,
		State: state,
	}))
}

// appendLog writes one audit entry. A nil job context still produces an
// entry so manual operations leave a trace.
func (s *Sequencer) appendLog(robot string, ctx *jobContext, action string, quantity int) {
	e := LogEntry{
		RobotName: robot,
		Action:    action,
		Quantity:  quantity,
		CreatedAt: time.Now(),
	}
	if ctx != nil {
		e.PinName = ctx.pinName
		e.CategoryName = ctx.categoryName
		e.StockName = ctx.stockName
		e.StockID = ctx.StockID
	}
	if err := s.store.AppendLog(e); err != nil {
		log.Printf("jobs: append log %q: %v", action, err)
	}
}

func startAction(mode string) string {
	if mode == protocol.ModeOutbound {
		return ActionOutboundStart
	}
	return ActionInboundStart
}

func completeAction(mode string) string {
	if mode == protocol.ModeOutbound {
		return ActionOutboundComplete
	}
	return ActionInboundComplete
}
