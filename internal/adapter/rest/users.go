package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simaogato/fraxion-backend/internal/domain"
	"github.com/simaogato/fraxion-backend/internal/usecase/user"
)

// UserList is the body of the user listings
type UserList struct {
	Users []*domain.User `json:"users"`
	Count int            `json:"count"`
}

func newUserList(users []*domain.User) UserList {
	if users == nil {
		users = []*domain.User{}
	}
	return UserList{Users: users, Count: len(users)}
}

func (h *Handler) createUser(c *gin.Context) {
	var input user.CreateUserInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.Users.CreateUser(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) listUsers(c *gin.Context) {
	page, perPage, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}
	includeDeleted, err := queryBool(c, "include_deleted", false)
	if err != nil {
		respondError(c, err)
		return
	}

	users, err := h.Users.ListUsers(c.Request.Context(), user.ListOptions{Page: page, PerPage: perPage, IncludeDeleted: includeDeleted})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserList(users))
}

func (h *Handler) listManagers(c *gin.Context) {
	managers, err := h.Users.GetManagers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserList(managers))
}

func (h *Handler) getUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	found, err := h.Users.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *Handler) updateUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var input user.UpdateUserInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.Users.UpdateUser(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	deleted, err := h.Users.DeleteUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}
