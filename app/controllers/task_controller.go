package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/internal/pkg/rbac"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
)

// HandleListTasks returns the tenant's tasks.
func HandleListTasks(c *fiber.Ctx) error {
	repos := tenantctx.Repos(c)

	tasks, err := repos.Tasks.List(listOptions(c))
	if err != nil {
		return errInternal(c, "failed to load tasks")
	}
	total, err := repos.Tasks.Count()
	if err != nil {
		return errInternal(c, "failed to load tasks")
	}

	return c.JSON(fiber.Map{"tasks": tasks, "total": total})
}

// HandleGetTask returns one task.
func HandleGetTask(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	task, err := tenantctx.Repos(c).Tasks.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load task")
	}

	if d := authorize(c, rbac.ActionView, rbac.ResourceTask, task.CompanyID, task.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}
	return c.JSON(task)
}

// HandleCreateTask creates a task. Staff assigning a task to someone else
// are rejected, not silently reassigned.
func HandleCreateTask(c *fiber.Ctx) error {
	if d := authorize(c, rbac.ActionCreate, rbac.ResourceTask, 0, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	var task models.Task
	if err := c.BodyParser(&task); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	task.ID = 0

	rc := tenantctx.Get(c)
	assignee, ok := rbac.CheckTaskCreateAssignee(rc.Role, tenantctx.UserID(c), task.AssignedTo)
	if !ok {
		return errForbidden(c)
	}
	task.AssignedTo = assignee

	if err := validate.Struct(&task); err != nil {
		return errValidation(c, err)
	}

	if err := tenantctx.Repos(c).Tasks.Create(&task); err != nil {
		return errInternal(c, "failed to create task")
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// HandleUpdateTask updates a task.
func HandleUpdateTask(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	task, err := repos.Tasks.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load task")
	}

	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceTask, task.CompanyID, task.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	var patch models.Task
	if err := c.BodyParser(&patch); err != nil {
		return errBadRequest(c, "invalid request body")
	}

	rc := tenantctx.Get(c)
	if patch.AssignedTo != task.AssignedTo &&
		!rbac.CanAssign(rc.Role, tenantctx.UserID(c), patch.AssignedTo) {
		return errForbidden(c)
	}

	patch.ID = task.ID
	patch.CompanyID = task.CompanyID
	patch.CreatedAt = task.CreatedAt
	if err := validate.Struct(&patch); err != nil {
		return errValidation(c, err)
	}

	if err := repos.Tasks.Update(&patch); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound(c)
		}
		return errInternal(c, "failed to update task")
	}
	return c.JSON(patch)
}

// HandleDeleteTask removes a task. Assignees can delete their own tasks,
// everything else needs admin.
func HandleDeleteTask(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	task, err := repos.Tasks.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load task")
	}

	if d := authorize(c, rbac.ActionDelete, rbac.ResourceTask, task.CompanyID, task.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	if err := repos.Tasks.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound(c)
		}
		return errInternal(c, "failed to delete task")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// HandleCompleteTask marks a task completed and stamps the time.
func HandleCompleteTask(c *fiber.Ctx) error {
	return setTaskCompletion(c, true)
}

// HandleReopenTask clears completion and puts the task back to pending.
func HandleReopenTask(c *fiber.Ctx) error {
	return setTaskCompletion(c, false)
}

func setTaskCompletion(c *fiber.Ctx, done bool) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	task, err := repos.Tasks.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load task")
	}

	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceTask, task.CompanyID, task.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	if done {
		now := time.Now()
		task.Status = models.TaskStatusCompleted
		task.CompletedAt = &now
	} else {
		task.Status = models.TaskStatusPending
		task.CompletedAt = nil
	}

	if err := repos.Tasks.Update(task); err != nil {
		return errInternal(c, "failed to update task")
	}
	statsService.Invalidate(repos.CompanyID)
	return c.JSON(task)
}
