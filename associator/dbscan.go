package associator

// noiseLabel marks a point DBSCAN could not assign to any cluster.
const noiseLabel = -1

// dbscan1D clusters a 1-dimensional feature set (the picks' reduced
// origin-time estimates, in seconds) using the standard density-based
// clustering algorithm: points within epsilon of a core point (one with
// at least minPoints neighbors, inclusive of itself) join its cluster;
// clusters merge transitively through shared core points. Returns one
// label per input point; noiseLabel for points assigned to no cluster.
func dbscan1D(features []float64, epsilon float64, minPoints int) []int {
	n := len(features)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = noiseLabel
	}
	visited := make([]bool, n)
	nextCluster := 0

	neighbors := func(i int) []int {
		var result []int
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := features[i] - features[j]
			if d < 0 {
				d = -d
			}
			if d <= epsilon {
				result = append(result, j)
			}
		}
		return result
	}

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		neighborIdx := neighbors(i)
		if len(neighborIdx)+1 < minPoints {
			continue // stays noise unless later absorbed by another core point
		}

		label := nextCluster
		nextCluster++
		labels[i] = label

		queue := append([]int{}, neighborIdx...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if !visited[j] {
				visited[j] = true
				jNeighbors := neighbors(j)
				if len(jNeighbors)+1 >= minPoints {
					queue = append(queue, jNeighbors...)
				}
			}
			if labels[j] == noiseLabel {
				labels[j] = label
			}
		}
	}
	return labels
}

// clusterIndices groups point indices by their DBSCAN label, in ascending
// label order, dropping noise.
func clusterIndices(labels []int) [][]int {
	maxLabel := -1
	for _, l := range labels {
		if l > maxLabel {
			maxLabel = l
		}
	}
	if maxLabel < 0 {
		return nil
	}
	clusters := make([][]int, maxLabel+1)
	for i, l := range labels {
		if l == noiseLabel {
			continue
		}
		clusters[l] = append(clusters[l], i)
	}
	return clusters
}
