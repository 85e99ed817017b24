// Package account stores registered players in SQLite.
//
// Store implements service.AccountStore with three tables: users (password
// hash, login time and aggregated results), auth_sessions (login tokens)
// and game_records (one row per finished game). Guests never reach this
// package; the account service keeps them in memory.
//
//	store, err := account.Open("snake.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//	accounts := service.NewAccountService(store)
package account
