package database

import "nfl-pickem/interfaces"

// Interface compliance checks - these fail to compile if a repository drifts from its interface
var (
	_ interfaces.GameRepository         = (*MongoGameRepository)(nil)
	_ interfaces.GameResultRepository   = (*MongoGameResultRepository)(nil)
	_ interfaces.PickRepository         = (*MongoPickRepository)(nil)
	_ interfaces.ActivityRepository     = (*MongoActivityRepository)(nil)
	_ interfaces.UserRepository         = (*MongoUserRepository)(nil)
	_ interfaces.WeeklyResultRepository = (*MongoWeeklyResultRepository)(nil)
)
