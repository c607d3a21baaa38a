package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 会话状态常量
const (
	StatePending   = "pending"
	StateCharging  = "charging"
	StateCompleted = "completed"
	StateStopped   = "stopped"
	StateFailed    = "failed"
)

// 事件常量
const (
	EventStart    = "start"
	EventComplete = "complete"
	EventStop     = "stop"
	EventFail     = "fail"
)

// SessionState 会话运行时快照
type SessionState struct {
	SessionID      string    `json:"session_id"`
	CurrentState   string    `json:"state"`
	Since          time.Time `json:"since"`
	BatteryCurrent float64   `json:"battery_current"`
	Progress       float64   `json:"progress"`
	EnergyKwh      float64   `json:"energy_delivered"`
	ElapsedMin     float64   `json:"duration_min"`
}

// Machine 充电会话状态机
type Machine struct {
	mu            sync.RWMutex
	sessionID     string
	fsm           *fsm.FSM
	state         *SessionState
	onStateChange func(sessionID string, from, to string)
}

// NewMachine 创建状态机
func NewMachine(sessionID string, initialState string, onStateChange func(sessionID string, from, to string)) *Machine {
	if initialState == "" {
		initialState = StatePending
	}

	m := &Machine{
		sessionID:     sessionID,
		onStateChange: onStateChange,
		state: &SessionState{
			SessionID:    sessionID,
			CurrentState: initialState,
			Since:        time.Now(),
		},
	}

	m.fsm = fsm.NewFSM(
		initialState,
		fsm.Events{
			{Name: EventStart, Src: []string{StatePending}, Dst: StateCharging},
			{Name: EventComplete, Src: []string{StateCharging}, Dst: StateCompleted},

			// 用户主动结束或异常中断
			{Name: EventStop, Src: []string{StatePending, StateCharging}, Dst: StateStopped},
			{Name: EventFail, Src: []string{StatePending, StateCharging}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(m.sessionID, e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// CurrentState 获取当前状态
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// Terminal 是否已结束
func (m *Machine) Terminal() bool {
	return IsTerminal(m.CurrentState())
}

// GetState 获取完整状态
func (m *Machine) GetState() *SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stateCopy := *m.state
	stateCopy.CurrentState = m.fsm.Current()
	return &stateCopy
}

// UpdateState 更新状态数据
func (m *Machine) UpdateState(update func(s *SessionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	update(m.state)
}

// Trigger 触发事件
func (m *Machine) Trigger(event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}

	m.state.CurrentState = m.fsm.Current()
	m.state.Since = time.Now()
	return nil
}

// CanTransition 检查是否可以转换
func (m *Machine) CanTransition(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}

// IsTerminal 终态判断
func IsTerminal(s string) bool {
	return s == StateCompleted || s == StateStopped || s == StateFailed
}

// Manager 状态机管理器
type Manager struct {
	mu       sync.RWMutex
	machines map[string]*Machine
	onChange func(sessionID string, from, to string)
}

// NewManager 创建管理器
func NewManager(onChange func(sessionID string, from, to string)) *Manager {
	return &Manager{
		machines: make(map[string]*Machine),
		onChange: onChange,
	}
}

// GetOrCreate 获取或创建状态机
func (m *Manager) GetOrCreate(sessionID string, initialState string) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if machine, ok := m.machines[sessionID]; ok {
		return machine
	}

	machine := NewMachine(sessionID, initialState, m.onChange)
	m.machines[sessionID] = machine
	return machine
}

// Get 获取状态机
func (m *Manager) Get(sessionID string) (*Machine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	machine, ok := m.machines[sessionID]
	return machine, ok
}

// Remove 移除已结束会话的状态机
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.machines, sessionID)
}

// GetAllStates 获取所有会话状态
func (m *Manager) GetAllStates() map[string]*SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[string]*SessionState)
	for id, machine := range m.machines {
		states[id] = machine.GetState()
	}
	return states
}
