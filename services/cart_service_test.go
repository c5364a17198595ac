package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	course := f.createCourse(t, courseSpec{price: "100"})

	cart, err := f.carts.GetCart(ctx, student.ID)
	require.NoError(t, err)
	assert.Zero(t, cart.ID)
	assert.Empty(t, cart.Items)

	cart, err = f.carts.AddItem(ctx, student.ID, course.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, course.ID, cart.Items[0].CourseID)
	assert.Equal(t, course.Title, cart.Items[0].Course.Title)

	cart, err = f.carts.AddItem(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1, "adding twice keeps one item")

	cart, err = f.carts.RemoveItem(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = f.carts.RemoveItem(ctx, student.ID, course.ID)
	require.NoError(t, err)
}

func TestCartAddRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	unlisted := f.createCourse(t, courseSpec{price: "100", unlisted: true})
	owned := f.createCourse(t, courseSpec{free: true})
	_, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{owned.ID}})
	require.NoError(t, err)

	_, err = f.carts.AddItem(ctx, student.ID, unlisted.ID)
	require.ErrorIs(t, err, ErrCourseUnavailable)

	_, err = f.carts.AddItem(ctx, student.ID, 424242)
	require.ErrorIs(t, err, ErrCourseUnavailable)

	_, err = f.carts.AddItem(ctx, student.ID, owned.ID)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)

	assert.Zero(t, f.count(t, &model.CartItem{}, ""))
}
