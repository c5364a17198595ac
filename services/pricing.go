package services

import (
	"fmt"

	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CoursePrice returns the amount charged for a course: 0 when free, the offer
// price when one is set, otherwise the list price.
func CoursePrice(c model.Course) decimal.Decimal {
	if c.IsFree {
		return decimal.Zero
	}
	if c.OfferPrice.IsPositive() {
		return c.OfferPrice
	}
	return c.Price
}

// ApprovedInstructors filters a course's instructors down to approved ones
func ApprovedInstructors(instructors []model.CourseInstructor) []model.CourseInstructor {
	approved := make([]model.CourseInstructor, 0, len(instructors))
	for _, ci := range instructors {
		if ci.Status == model.ShareStatusApproved {
			approved = append(approved, ci)
		}
	}
	return approved
}

// TotalSharePercent sums the share percent of the given instructors
func TotalSharePercent(instructors []model.CourseInstructor) decimal.Decimal {
	total := decimal.Zero
	for _, ci := range instructors {
		total = total.Add(ci.Share)
	}
	return total
}

// AllocateShares splits amount between approved instructors by share percent.
// Amounts are rounded to 2 decimals; when the percents add up to exactly 100 the
// last instructor absorbs the rounding so the shares sum to amount.
func AllocateShares(amount decimal.Decimal, instructors []model.CourseInstructor) ([]model.InstructorShare, error) {
	approved := ApprovedInstructors(instructors)
	totalPct := TotalSharePercent(approved)
	if totalPct.GreaterThan(hundred) {
		return nil, fmt.Errorf("%w: %s%%", ErrShareLimitExceeded, totalPct.String())
	}

	shares := make([]model.InstructorShare, 0, len(approved))
	allocated := decimal.Zero
	for i, ci := range approved {
		shareAmount := amount.Mul(ci.Share).Div(hundred).Round(2)
		if i == len(approved)-1 && totalPct.Equal(hundred) {
			shareAmount = amount.Sub(allocated)
		}
		allocated = allocated.Add(shareAmount)
		shares = append(shares, model.InstructorShare{
			InstructorID: ci.InstructorID,
			SharePercent: ci.Share,
			ShareAmount:  shareAmount,
		})
	}
	return shares, nil
}

// ToMinorUnits converts an amount to the smallest currency unit (paise, cents)
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// orderLine is a priced course ready to be persisted as an OrderItem
type orderLine struct {
	course model.Course
	amount decimal.Decimal
	shares []model.InstructorShare
}

// priceCourses builds the priced lines for an order and returns the total
func priceCourses(courses []model.Course) ([]orderLine, decimal.Decimal, error) {
	lines := make([]orderLine, 0, len(courses))
	total := decimal.Zero
	for _, course := range courses {
		amount := CoursePrice(course)
		shares, err := AllocateShares(amount, course.Instructors)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("course %d: %w", course.ID, err)
		}
		lines = append(lines, orderLine{course: course, amount: amount, shares: shares})
		total = total.Add(amount)
	}
	return lines, total, nil
}
