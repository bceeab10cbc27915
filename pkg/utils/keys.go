package utils

const latestSnapshotKey = "circ_supply:latest"

func LatestSnapshotKey() string {
	return latestSnapshotKey
}
