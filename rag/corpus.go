package rag

// seedCorpus is the built-in plant care knowledge, indexed on first start so
// the advisor gives grounded answers before any external corpus is loaded.
var seedCorpus = map[string]string{
	"tomato": "Tomatoes need 6-8 hours of direct sunlight daily. Water deeply 2-3 times " +
		"per week, about 1-2 inches of water total; inconsistent watering causes blossom " +
		"end rot and split fruit. Use well-drained soil rich in organic matter with pH " +
		"6.0-6.8. Stake or cage plants early and pinch suckers on indeterminate varieties. " +
		"Feed with a balanced fertilizer every two weeks once fruit sets.",

	"basil": "Basil thrives in warm weather and needs 6+ hours of sun. Keep the soil " +
		"consistently moist but never waterlogged; water at the base to keep leaves dry. " +
		"Pinch off flower buds as soon as they appear to keep leaves tender. Harvest from " +
		"the top down, cutting just above a leaf pair so the plant bushes out. Basil is " +
		"frost-tender; bring pots inside below 10C.",

	"rose": "Roses want at least 6 hours of morning sun and well-drained loamy soil with " +
		"pH 6.0-6.5. Water deeply once or twice a week at the base; wet foliage invites " +
		"black spot. Mulch to keep roots cool. Prune in early spring, removing dead wood " +
		"and crossing canes, and deadhead spent blooms through the season. Feed monthly " +
		"during the growing season with rose fertilizer.",

	"cactus": "Cacti need bright light and very little water. In summer water only when " +
		"the soil is completely dry, roughly every 2-3 weeks; in winter once a month or " +
		"less. Always use a gritty, fast-draining cactus mix and a pot with drainage " +
		"holes. Overwatering is the most common killer; when in doubt, wait another week. " +
		"Most cacti like a cool, dry winter rest to trigger spring flowering.",

	"orchid": "Orchids (phalaenopsis) prefer bright indirect light; direct midday sun " +
		"scorches leaves. Water about once a week by soaking the bark medium and letting " +
		"it drain fully; never leave roots standing in water. They like 50-70% humidity " +
		"and good airflow. Repot every 1-2 years in fresh orchid bark. After blooms drop, " +
		"cut the spike above a node to encourage a secondary flower spike.",
}
