package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// mockResolver implements TaskResolver with a configurable function.
type mockResolver struct {
	resolveFn func(ctx context.Context, id uuid.UUID, taskType string, payload []byte) (Task, error)
}

func (r *mockResolver) ResolveTask(
	ctx context.Context,
	id uuid.UUID,
	taskType string,
	payload []byte,
) (Task, error) {
	return r.resolveFn(ctx, id, taskType, payload)
}

func TestTaskRunner_Submit(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := newTestLogger()

	config := DefaultTaskRunnerConfig()
	config.QueueSize = 2

	runner := NewTaskRunner(store, config, logger)

	t.Run("successful submission", func(t *testing.T) {
		task := CreateMockTaskWithPayload("test task")
		err := runner.Submit(context.Background(), task)

		assert.NoError(t, err)

		// Verify task was saved to store
		pendingTasks, _ := store.GetPendingTasks(context.Background())
		assert.Contains(t, extractTaskIDs(pendingTasks), task.ID())
	})

	t.Run("queue full", func(t *testing.T) {
		smallStore := NewMockTaskStore()
		smallConfig := DefaultTaskRunnerConfig()
		smallConfig.QueueSize = 1

		smallRunner := NewTaskRunner(smallStore, smallConfig, logger)

		// Fill the queue; no workers are running, so the slot stays taken.
		task1 := CreateMockTaskWithPayload("task 1")
		err := smallRunner.Submit(context.Background(), task1)
		require.NoError(t, err)

		task2 := CreateMockTaskWithPayload("task 2")
		err = smallRunner.Submit(context.Background(), task2)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "queue is full")
	})

	t.Run("store error", func(t *testing.T) {
		errorStore := NewMockTaskStore()
		errorStore.SaveFn = func(ctx context.Context, task Task) error {
			return errors.New("mock store error")
		}

		errorRunner := NewTaskRunner(errorStore, config, logger)

		task := CreateMockTaskWithPayload("error task")
		err := errorRunner.Submit(context.Background(), task)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save task")
	})
}

func TestTaskRunner_Start_and_Processing(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := newTestLogger()

	config := DefaultTaskRunnerConfig()
	config.WorkerCount = 2
	config.QueueSize = 10

	runner := NewTaskRunner(store, config, logger)

	taskCompletedChan := make(chan uuid.UUID, 5)

	var mu sync.Mutex
	taskIDs := make([]uuid.UUID, 0, 3)

	for i := 0; i < 3; i++ {
		task := CreateMockTaskWithPayload("test task")

		mu.Lock()
		taskIDs = append(taskIDs, task.ID())
		mu.Unlock()

		taskID := task.ID()
		task.ExecuteFn = func(ctx context.Context) error {
			taskCompletedChan <- taskID
			return nil
		}

		err := runner.Submit(context.Background(), task)
		require.NoError(t, err)
	}

	err := runner.Start()
	require.NoError(t, err)

	completedTasks := make(map[uuid.UUID]bool)
	timeout := time.After(2 * time.Second)

taskWaitLoop:
	for len(completedTasks) < 3 {
		select {
		case taskID := <-taskCompletedChan:
			completedTasks[taskID] = true
		case <-timeout:
			break taskWaitLoop
		}
	}

	runner.Stop()

	mu.Lock()
	defer mu.Unlock()

	for _, id := range taskIDs {
		assert.True(t, completedTasks[id], "Task %s should have been completed", id)
	}
	assert.Len(t, completedTasks, 3, "All 3 tasks should have been completed")
}

func TestTaskRunner_TaskFailure(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := newTestLogger()

	config := DefaultTaskRunnerConfig()
	runner := NewTaskRunner(store, config, logger)

	errorChan := make(chan struct{}, 1)
	runner.SetErrorHandler(func(task Task, err error) {
		errorChan <- struct{}{}
	})

	task := CreateMockTaskWithPayload("failing task")
	task.ExecuteFn = func(ctx context.Context) error {
		return errors.New("intentional test failure")
	}

	err := runner.Submit(context.Background(), task)
	require.NoError(t, err)

	err = runner.Start()
	require.NoError(t, err)

	select {
	case <-errorChan:
		// Error handler was called as expected
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for error handler to be called")
	}

	// Allow the status update racing with the error handler to land.
	time.Sleep(100 * time.Millisecond)

	runner.Stop()

	status, found := store.TaskStatusFor(task.ID())
	require.True(t, found)
	assert.Equal(t, TaskStatusFailed, status)
	assert.Contains(t, store.TaskErrorFor(task.ID()), "intentional test failure")
}

func TestTaskRunner_Recover(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := newTestLogger()

	pendingTask := CreateMockTaskWithPayload("pending task")
	processingTask := CreateMockTaskWithPayload("processing task")

	require.NoError(t, store.SaveTask(context.Background(), pendingTask))
	require.NoError(t, store.SaveTask(context.Background(), processingTask))
	require.NoError(t,
		store.UpdateTaskStatus(context.Background(), processingTask.ID(), TaskStatusProcessing, ""))

	taskCompletedChan := make(chan uuid.UUID, 5)

	for id, storedTask := range store.tasks {
		taskID := id
		mockTask := storedTask.(*MockTask)
		mockTask.ExecuteFn = func(ctx context.Context) error {
			taskCompletedChan <- taskID
			return nil
		}
	}

	config := DefaultTaskRunnerConfig()
	runner := NewTaskRunner(store, config, logger)

	// Start triggers recovery of both tasks.
	err := runner.Start()
	require.NoError(t, err)

	expectedTasks := map[uuid.UUID]bool{
		pendingTask.ID():    false,
		processingTask.ID(): false,
	}

	timeout := time.After(2 * time.Second)

taskWaitLoop:
	for {
		allCompleted := true
		for _, completed := range expectedTasks {
			if !completed {
				allCompleted = false
				break
			}
		}

		if allCompleted {
			break taskWaitLoop
		}

		select {
		case taskID := <-taskCompletedChan:
			expectedTasks[taskID] = true
		case <-timeout:
			break taskWaitLoop
		}
	}

	runner.Stop()

	assert.True(t, expectedTasks[pendingTask.ID()], "Pending task should have been completed")
	assert.True(t, expectedTasks[processingTask.ID()], "Processing task should have been completed")
}

func TestTaskRunner_RecoverWithResolver(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := newTestLogger()

	// A persisted row on its own cannot do the real work.
	row := NewMockTask(uuid.New(), "mock_task", []byte(`{"message":"recover me"}`))
	row.ExecuteFn = func(ctx context.Context) error {
		return errors.New("persisted row executed without resolution")
	}
	require.NoError(t, store.SaveTask(context.Background(), row))

	resolvedChan := make(chan uuid.UUID, 1)
	resolver := &mockResolver{
		resolveFn: func(ctx context.Context, id uuid.UUID, taskType string, payload []byte) (Task, error) {
			assert.Equal(t, row.ID(), id)
			assert.Equal(t, "mock_task", taskType)
			assert.JSONEq(t, `{"message":"recover me"}`, string(payload))

			resolved := NewMockTask(id, taskType, payload)
			resolved.ExecuteFn = func(ctx context.Context) error {
				resolvedChan <- id
				return nil
			}
			return resolved, nil
		},
	}

	runner := NewTaskRunner(store, DefaultTaskRunnerConfig(), logger)
	runner.SetResolver(resolver)

	require.NoError(t, runner.Start())

	select {
	case taskID := <-resolvedChan:
		assert.Equal(t, row.ID(), taskID, "Resolved task should have been executed")
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for resolved task to be executed")
	}

	runner.Stop()
}

func TestTaskRunner_UnresolvableTask(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := newTestLogger()

	row := NewMockTask(uuid.New(), "unknown_type", []byte(`{}`))
	require.NoError(t, store.SaveTask(context.Background(), row))

	resolver := &mockResolver{
		resolveFn: func(ctx context.Context, id uuid.UUID, taskType string, payload []byte) (Task, error) {
			return nil, errors.New("unsupported task type")
		},
	}

	runner := NewTaskRunner(store, DefaultTaskRunnerConfig(), logger)
	runner.SetResolver(resolver)

	require.NoError(t, runner.Start())
	defer runner.Stop()

	// Recovery marks the row failed so it does not come back on every restart.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, _ := store.TaskStatusFor(row.ID())
		if status == TaskStatusFailed {
			assert.True(t, strings.HasPrefix(store.TaskErrorFor(row.ID()), "unresolvable task"))
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for unresolvable task to be marked failed")
}

func TestTaskRunner_StuckTasks(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := newTestLogger()

	stuckTask := CreateMockTaskWithPayload("stuck task")
	require.NoError(t, store.SaveTask(context.Background(), stuckTask))
	require.NoError(t,
		store.UpdateTaskStatus(context.Background(), stuckTask.ID(), TaskStatusProcessing, ""))

	// Backdate the status change so the task counts as stuck.
	store.taskStatusTimes[stuckTask.ID()] = time.Now().Add(-30 * time.Minute)

	taskCompletedChan := make(chan uuid.UUID, 5)

	mockTask := store.tasks[stuckTask.ID()].(*MockTask)
	mockTask.ExecuteFn = func(ctx context.Context) error {
		taskCompletedChan <- stuckTask.ID()
		return nil
	}

	config := DefaultTaskRunnerConfig()
	config.StuckTaskAge = 15 * time.Minute
	config.StuckTaskCheckInterval = 100 * time.Millisecond

	runner := NewTaskRunner(store, config, logger)

	err := runner.Start()
	require.NoError(t, err)

	select {
	case taskID := <-taskCompletedChan:
		assert.Equal(t, stuckTask.ID(), taskID, "Stuck task should have been executed")
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for stuck task to be executed")
	}

	runner.Stop()
}

// Helper function to extract task IDs from a slice of tasks
func extractTaskIDs(tasks []Task) []uuid.UUID {
	ids := make([]uuid.UUID, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID()
	}
	return ids
}
