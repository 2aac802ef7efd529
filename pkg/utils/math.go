package utils

import (
	"math"
)

// math.go - математические утилиты портфельных расчётов
//
// Все функции являются чистыми (pure functions) без побочных эффектов.

// WeightedAverageCost возвращает средневзвешенную цену входа после
// добавления нового лота к существующей позиции.
//
// Параметры:
//   - oldShares, oldPrice: текущая позиция
//   - newShares, newPrice: добавляемый лот
//
// Примеры:
//   - WeightedAverageCost(10, 100, 10, 200) = 150
//   - WeightedAverageCost(0, 0, 5, 42) = 42
func WeightedAverageCost(oldShares, oldPrice, newShares, newPrice float64) float64 {
	totalShares := oldShares + newShares
	if totalShares == 0 {
		return 0
	}
	return (oldShares*oldPrice + newShares*newPrice) / totalShares
}

// GainLoss возвращает абсолютную прибыль/убыток позиции
func GainLoss(shares, entryPrice, currentPrice float64) float64 {
	return shares * (currentPrice - entryPrice)
}

// GainLossPercent возвращает прибыль/убыток в процентах от вложенного.
// При нулевой базе возвращает 0, а не NaN
func GainLossPercent(costBasis, currentValue float64) float64 {
	if costBasis == 0 {
		return 0
	}
	return (currentValue - costBasis) / costBasis * 100
}

// Round2 округляет до двух знаков после запятой.
// Используется только при форматировании ответов API,
// внутренние расчёты ведутся без округления
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
