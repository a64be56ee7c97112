package stratz

// Divisions are the leaderboard divisions the collector walks
var Divisions = []string{"AMERICAS", "SE_ASIA", "EUROPE", "CHINA"}

const matchesQuery = `
query GetMatches($steam_account_ids: [Long]!, $game_version_ids: [Short]) {
	players(steamAccountIds: $steam_account_ids) {
		steamAccountId
		matchCount
		winCount
		matches(request: {skip: 0, take: 100, gameVersionIds: $game_version_ids}) {
			id
			pickBans {
				order
				isPick
				isRadiant
				heroId
			}
			didRadiantWin
		}
	}
}`

const leaderboardQuery = `
query GetPlayersLeaderboards($request: FilterSeasonLeaderboardRequestType, $skip: Long, $take: Long) {
	leaderboard {
		season(request: $request) {
			playerCount
			players(skip: $skip, take: $take) {
				steamAccountId
				steamAccount {
					id
					name
					countryCode
					isAnonymous
				}
				rank
				position
			}
		}
	}
}`

const heroConstantsQuery = `
query GetHeroes {
	constants {
		heroes {
			id
			shortName
			displayName
		}
	}
}`

// statusQuery is the cheapest query that still requires a valid token
const statusQuery = `query { constants { gameVersions { id } } }`
