package collision

import (
	"go.viam.com/contactscan/scene"
)

// Threshold returns the contact threshold of a (target, collider) pair: the sum of both contact
// margins plus epsilon, with objects that carry no margin using defaultMargin.
func Threshold(target, collider scene.Margined, defaultMargin, epsilon float64) float64 {
	return marginOr(target, defaultMargin) + marginOr(collider, defaultMargin) + epsilon
}

func marginOr(obj scene.Margined, fallback float64) float64 {
	if obj == nil {
		return fallback
	}
	if m, ok := obj.Margin(); ok {
		return m
	}
	return fallback
}
