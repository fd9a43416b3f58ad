package codec

// secondaryLayout is the line-by-line layout of the parameter file. Line i
// of the encoded text is rendered from secondaryLayout[i].
var secondaryLayout = []line{
	freeText("description.project"),
	banner(" #<V8.8># --- Fin du texte libre --- ; Ne pas modifier/retirer cette ligne"),
	banner(" *** Pré-Options Générales           ***"),
	setting("general_settings.user_profile", "Profil d'utilisation : 0=simple ; A=Avancé (Neige, Pompage, Prévi etc.)"),
	setting("general_settings.execution_mode", "Mode d'exécution (C = Contrôle sur écran ; Déf=Rapide ; D=Direct ; M=Muet)"),
	setting("general_settings.computation_mode", "Opération : Déf=Calcul ; A=Actualisation seule du fichier des paramètres"),
	banner(" *** Options Générales               ***"),
	setting("general_settings.n_sites", "Nombre de Sites (Bassins) à modéliser successivement"),
	setting("general_settings.forecast_data_type", "Type de donnée pour Prévision (0=Débits de Rivière , 1=Niveaux de Nappe)"),
	setting("general_settings.streamflow_obs_weight", "Observations de Débits de Rivière : Importance (entier : 0 à 10 ;  0=Non)"),
	setting("general_settings.piezo-level_obs_weight", "Observations de Niveaux de Nappe  : Importance (entier : 0 à 10 ;  0=Non)"),
	setting("general_settings.calc_streamflow", "Calcul des Débits de Rivière : (0=Non  ;  1=Oui)"),
	setting("general_settings.calc_piezo-level", "Calcul des Niveaux de Nappe  : (0=Non  ;  1=Oui)"),
	setting("general_settings.save_recharge_effective-rainfall", "Sauvegarde de la Recharge et de la Pluie Efficace (0=Non  ;  1=Oui)"),
	setting("general_settings.save_streamflow_piezo-level", "Sauvegarde des Débit/Niveaux simulés : (0=Non  ;  1=Oui)"),
	setting("general_settings.save_water-balance", "Sauvegarde des termes du Bilan : (0=Non ; 1=Annuel ; 2=Mensuel ; 3=Tous les pas de temps)"),
	setting("general_settings.verbose", "Allègement du Listing (0=Complet ; 1=Allégé ; 2=Supprimé)"),
	setting("general_settings.computation_scheme", "Schéma de calcul (0=Gardénia ; 5=Ruissell,Drainage ; etc.)"),
	setting("general_settings.draw_series", "Dessin de la série simulée (0=non ; 1=Oui ; 2=Oui avec décomposition)"),
	setting("general_settings.transform_calibration_data", "Transformation du débit pour calibration (0=Non ; 99= Racine_Débit; 97= Logar_Débits ; etc.)"),
	setting("general_settings.minimise_streamflow_bias", "Poids (%) de minimisation du biais de simulation des Débits Rivière (0 = Non ; 100 = 100 %)"),
	setting("general_settings.pumping_influencing_streamflow", "Pompage influençant les Débits de Rivière (0=Non ; 1=Oui ; 2=Oui en rivière)"),
	setting("general_settings.pumping_influencing_piezo-level", "Pompage influençant les Niveaux de Nappe (0=Non ; 1=Oui)"),
	setting("general_settings.forecast_run", "Calcul avec Prévision (0=Non ; 1=Oui ; -1=Préparation uniquement) [3, 4 = Particulier]"),
	setting("general_settings.forecast_method", "Méthode de Prévision (0=Ajustement Réservoirs ; 1=Décalage avec 1/2 vie)"),
	setting("general_settings.underground_exchange_scheme", "Schéma d'échanges souterr. avec extérieur (0=% Débit Souterr. (++) ; 1=Facteur Niv_Souterr.)"),
	setting("general_settings.daily_summary", "Bilan journalier même si pluie Décadaire ou Mensuelle (0=Non ; 1=Oui)"),
	setting("general_settings.consider_snow", "Prise en compte de la Neige (0=Non  ;  1=Oui)"),
	setting("general_settings.snowfall_in_file", "Précipitations neigeuses dans un fichier propre (0 = avec pluies ; 1 = fichier séparé)"),
	setting("general_settings.data_per_hydro_year", "Données par années hydrologiques [début 1 août] (0=années Civiles ; 1=années Hydrologiques)"),
	setting("general_settings.streamflow_loss", "Perte de Débit : 0=Non ; 1=Perd le Debit Souterrain le plus Lent ; -1=Perd le Ruissellement"),
	setting("general_settings.sensitivity_analysis", "Analyse de Sensibilité (0=Non  ;  1=Oui uniquement analyse de Sensibilité)"),
	setting("general_settings.save_impulse_and_cumulative_response", "Sauvegarde de la 'Réponse impulsionnelle' et de la 'Réponse Cumulée' (1=Oui)"),
	setting("general_settings.site_data_in_columns", "Données de tous les sites dans différentes colonnes d'un même fichier (Déf=0)"),
	setting("general_settings.simulation_rainfall_column_number", "Numéro de la 'colonne' des Pluies       : Déf=0 <=> 1ère colonne de données"),
	setting("general_settings.simulation_pet_column_number", "Numéro de la 'colonne' des ETP          : Déf=0=Identique à la pluie"),
	setting("general_settings.simulation_streamflow_column_number", "Numéro de la 'colonne' des Débits       : Déf=0=Identique à la pluie"),
	setting("general_settings.simulation_piezo-level_column_number", "Numéro de la 'colonne' des Niveaux      : Déf=0=Identique à la pluie"),
	setting("general_settings.simulation_air-temp_column_number", "Numéro de la 'colonne' des Températures : Déf=0=Identique à la pluie"),
	setting("general_settings.simulation_snowfall_column_number", "Numéro de la 'colonne' de la Neige      : Déf=0=Identique à la pluie"),
	setting("general_settings.simulation_pumping_column_number", "Numéro de la 'colonne' des Pompages     : Déf=0=Identique à la pluie"),
	setting("general_settings.forecast_rainfall_column_number", "Numéro de la 'colonne' des Pluies pour Prévision  : Déf=0=Identique à la pluie"),
	setting("general_settings.forecast_air-temp_column_number", "Numéro de la 'colonne' des Tempér. pour Prévision : Déf=0=Identique à la pluie"),
	setting("general_settings.forecast_pet_column_number", "Numéro de la 'colonne' des ETP pour Prévision     : Déf=0=Identique à la pluie"),
	setting("general_settings.forecast_snowfall_column_number", "Numéro de la 'colonne' de la Neige pour Prévision : Déf=0=Identique à la pluie"),
	setting("general_settings.weather_data_weighting_per_time_step", "Météo (Pluie, ETP, ...) pondérée à chaque pas [1=Fich. annuels SAFRAN , 2=Fichier unique]"),
	setting("general_settings.save_weather_data_weighting", "Sauvegarde de la météo pondérée => Fichier (futurs runs + rapides et portables) [1=Oui]"),
	setting("general_settings.openpalm_coupling", "Couplage avec le coupleur OpenPalm (0=Non ; 1=Couplage Météo)"),
	banner(" *** Pas de temps du Fichier Pluie, Neige, Pompage    ***"),
	setting("time.rainfall_snowfall_pumping_timestep", " Pas de temps :  0=Journalier 1=Pentadaire 2=Décadaire 3=Mensuel 4=Autre 5=5_Jours 7=7_Jours"),
	setting("time.rainfall_snowfall_pumping_format", " Format : 0=Gardénia_Sequentiel  1=Gardénia_Annuaire  2=Libre  3=Excel"),
	banner(" *** Pas de temps du Fichier Température              ***"),
	setting("time.air-temp_timestep", " Pas de temps :  0=Journalier 1=Pentadaire 2=Décadaire 3=Mensuel 4=Autre 5=5_Jours 7=7_Jours"),
	setting("time.air-temp_format", " Format : 0=Gardénia_Sequentiel  1=Gardénia_Annuaire  2=Libre  3=Excel"),
	banner(" *** Pas de temps du Fichier ETP                      ***"),
	setting("time.pet_timestep", " Pas de temps :  0=Journalier 1=Pentadaire 2=Décadaire 3=Mensuel 4=Autre 5=5_Jours 7=7_Jours"),
	setting("time.pet_format", " Format : 0=Gardénia_Sequentiel  1=Gardénia_Annuaire  2=Libre  3=Excel"),
	banner(" *** Pas de temps du Fichier Débits, Niveaux Observés ***"),
	setting("time.streamflow_piezo-level_timestep", " Pas de temps :  0=Journalier 1=Pentadaire 2=Décadaire 3=Mensuel 4=Autre 5=5_Jours 7=7_Jours"),
	setting("time.streamflow_piezo-level_format", " Format : 0=Gardénia_Sequentiel  1=Gardénia_Annuaire  2=Libre  3=Excel"),
	banner(" *** Durée du pas de temps s'il est non-standard ***"),
	setting("time.non_standard_timestep_duration_unit", "Unité de durée des Pas si non-standard (sec,min,heu,jou,moi,ann)"),
	setting("time.non_standard_timestep_duration", "Durée du pas de temps (dans l'unité)"),
	banner(" *** >>>>>>>>>>>>>> Fin des données communes ] >>>>>"),
	banner(" *** <<<<<<<<<<<< Début des données du bassin [ <<<<<"),
	freeText("description.basin"),
	number("filter_settings.observed_streamflow_to_consider.max", "Valeur Maximale du Débit de Rivière Observé prise en compte (0 = toutes)"),
	number("filter_settings.observed_streamflow_to_consider.min", "Valeur Minimale du Débit de Rivière Observé prise en compte (0 = toutes)"),
	number("filter_settings.observed_piezo-level_to_consider.max", "Valeur Maximale du Niveau de Nappe Observé prise en compte (0 = toutes)"),
	number("filter_settings.observed_piezo-level_to_consider.min", "Valeur Minimale du Niveau de Nappe Observé prise en compte (0 = toutes)"),
	number("forecast_settings.readjustment_factor", "Coefficient de réajustement pour la prévision [0 à 1]"),
	number("forecast_settings.standard_deviation_of_intermediate_reservoir", "Écart-type de l'alimentation du Réservoir intermédiaire  (pour la prévision)"),
	number("forecast_settings.standard_deviation_of_groundwater_reservoir_1", "Écart-type de l'alimentation du Réservoir Souterrain n°1 (pour la prévision)"),
	number("forecast_settings.standard_deviation_of_groundwater_reservoir_2", "Écart-type de l'alimentation du Réservoir Souterrain n°2 (pour la prévision)"),
	number("filter_settings.simulated_streamflow_lower_limit_to_apply", "Débit Rivière réservé (valeur simulée minimale possible) (Déf=0)"),
	number("forecast_settings.standard_deviation_of_observed_piezo-level", "Écart-type des observations de niveau de nappe (pour la prévision)"),
	number("forecast_settings.half-life_fall_streamflow_forecast", "Temps de 1/2 vie de l'écart de prévision de Débit  de rivière (pas de temps)"),
	number("forecast_settings.half-life_fall_piezo-level_forecast", "Temps de 1/2 vie de l'écart de prévision de Niveau de Nappe   (pas de temps)"),
	banner(" *** Options du Bassin               ***"),
	setting("basin_settings.time.simulation.n_years_in_data", "Nombre d'Années des séries de données (Pluie, ETP, Observations) [0 => Toutes]"),
	setting("basin_settings.model.initialisation.spinup.n_years", "Nombre d'Années démarrage (-n pour générer n année moy fictives de démarrage)"),
	setting("basin_settings.model.initialisation.spinup.n_cycles", "Nombre de cycles de démarrage (déf. = 1)"),
	setting("basin_settings.time.simulation.first_year", "Date de la première année des données (par ex. 2017)"),
	setting("basin_settings.time.delay_in_rainfall_data", "Décalage dans la série des Pluies [+5 => Retarde de 5 pas ; -4 Avance de 4 pas]"),
	setting("basin_settings.time.delay_in_streamflow_piezo-level_data", "Décalage de la série des Débits/Niveaux observés [ex: -2 => Avance de 2 pas]"),
	setting("basin_settings.model.initialisation.antecedent_conditions", "État initial : 0=Pluie Effic. moyenne ; -1=Réservoirs vides ; -2=RuMax vide aussi"),
	setting("basin_settings.model.calibration.max_iterations", "Nombre maxi. d'itérations pour la calibration (0 = aucune itération, pas de calibrat.)"),
	setting("basin_settings.time.rainfall_mean_duration_within_timestep", "Durée des pluies en moyenne par pas (%) (utilisations avancées)[défaut = 100 %]"),
	setting("basin_settings.model.structure.n_groundwater_reservoirs", "Nombre de réservoirs souterrains (1 ou 2 ou -1=Double + seuil)      [déf = 1]"),
	setting("basin_settings.model.structure.groundwater_reservoir_for_piezo-level", "Numéro du réservoir souterr. <=> Niveau nappe (si 2 réserv. souterr.) [déf = 1]"),
	setting("basin_settings.model.calibration.n_tail_years_to_trim", "Nombre d'années finales à ignorer pour la calibration (déf = 0) [< 0 => n° last ann]"),
	setting("basin_settings.time.simulation.first_day", "Numéro du Jour initial [Déf=1] (si durée non-standard) ; ex. 31 pour 31 Déc."),
	setting("basin_settings.time.simulation.first_month", "Numéro du Mois initial [Déf=1] (si durée non-standard) ; ex. 12 pour 31 Déc."),
	setting("basin_settings.time.simulation.first_hour", "Heure initiale [Déf=0] (si durée non-standard) ; par ex. 15 pour 15h30"),
	setting("basin_settings.time.simulation.first_minute", "Minute initiale [Déf=0] (si durée non-standard) ; Par ex. 30 pour 15h30"),
	setting("basin_settings.model.structure.intermediate_runoff_by_overspill", "Perte du débit de Ruissellement par Débordement au-dessus du Seuil [0=Non ; 1=Perte ; 2 => Rés Sout]"),
	setting("basin_settings.model.structure.intermediate_reservoir_evapotranspiration_decrease_only_when_half_empty", "Décroissance de l'évapotranspiration si saturation du réservoir sol < 50% (0=Non ; 1=Oui)"),
	setting("basin_settings.model.structure.constant_runoff_ratio_scheme", "Schéma à taux de ruissellement constant (pour comparaison ; déconseillé) (0=Non ; 1=Oui)"),
	setting("basin_settings.model.structure.storage_coefficient_computation_scheme", "Méthode de calcul du coeff. d'Emmagasinement [0 = Corrélation ; 1 = Optimis entre bornes]"),
	banner(" *** Paramètres de Prévision         ***"),
	setting("basin_settings.time.forecast.n_years_in_data", "Nombre d'Années de données du fichier de pluies etc. pour la Prévision"),
	setting("basin_settings.time.forecast.issue_day", "Jour d'émission de la prévision (1-31) si pas de temps journalier (sinon : 0)"),
	setting("basin_settings.time.forecast.issue_month", "Numéro du Mois [si journalier ou mensuel] (ou n° du pas) d'émission de la prévision)"),
	setting("basin_settings.time.forecast.span", "Portée de la Prévision (Nombre de pas de temps de la prévision)"),
	setting("basin_settings.time.forecast.first_year", "Date de la Première Année des fichiers météo de prévision [si journalier] (déf = 0)"),
	banner(" *** Position des Données du bassin  ***"),
	setting("basin_settings.data.basin_column_number_in_data", "N° de la 'colonne' des données : (-1 => N° d'ordre du bassin) Déf=0 <=> Col. n°1"),
	banner(" *** Paramètres Hydroclimatiques            ***"),
	number("physical_parameters.annual_effective-rainfall.val", "Pluie Eff. annuelle pour initialis. (0=équil.) (mm/an)"),
	param("external_flow", "Débit extérieur éventuel                        (m3/s)"),
	param("basin_area", "Superficie du bassin versant                     (km2)"),
	param("groundwater_base_level", "Niveau de base local de la nappe               (m NGF)"),
	param("rainfall_correction", "Correction globale des Pluies                      (%)"),
	param("pet_correction", "Correction globale de l'ETP                        (%)"),
	param("thornthewaite_reservoir_capacity", "Capacité du réservoir sol 'réserve utile'         (mm)"),
	param("progressive_reservoir_capacity", "Capacité du réservoir sol progressif              (mm)"),
	param("intermediate_runoff_seepage", "Hauteur de répartition Ruissellement-Percolation  (mm)"),
	param("intermediate_half-life_seepage", "Temps de 1/2 percolation vers la nappe          (mois)"),
	param("groundwater_1_drainage", "Temps de 1/2 tarissement du débit souterr. n°1  (mois)"),
	param("groundwater_1_2_exchange", "Temps de 1/2 transfert vers la nappe profonde   (mois)"),
	param("groundwater_1_double_outflow_threshold", "Seuil d'écoulement souterrain n°1 (rés. double)   (mm)"),
	param("groundwater_2_drainage", "Temps de 1/2 tarissement du débit souterr. n°2  (mois)"),
	param("time_of_concentration", "Temps de réaction ('retard') du débit   (pas de temps)"),
	param("groundwater_external_exchange", "Facteur d'échange souterrain externe               (%)"),
	param("thornthewaite_reservoir_initial_deficit", "Déficit initial du réservoir sol 'réserve utile'  (mm)"),
	param("progressive_reservoir_initial_deficit", "Déficit initial du réservoir sol progressif       (mm)"),
	param("intermediate_runoff_threshold", "Seuil de ruissellement par débordement            (mm)"),
	param("intermediate_half-life_runoff_by_overspill", "Temps de 1/2 ruissell. par débordement  (Pas de temps)"),
	param("intermediate_half-life_max_runoff_decrease", "Temps de 1/2 décroiss. maximal du ruissellement (mois)"),
	param("basin_area_correction", "Facteur de correction de la superficie du bassin   (-)"),
	param("groundwater_storage_coefficient", "Coefficient d'emmagasinement de la nappe           (%)"),
	banner(" *** Bornes des paramètres Hydroclimatiques ***"),
	bounds("rainfall_correction", "Correction globale des Pluies                      (%)"),
	bounds("pet_correction", "Correction globale de l'ETP                        (%)"),
	bounds("thornthewaite_reservoir_capacity", "Capacité du réservoir sol 'réserve utile'         (mm)"),
	bounds("progressive_reservoir_capacity", "Capacité du réservoir sol progressif              (mm)"),
	bounds("intermediate_runoff_seepage", "Hauteur de répartition Ruissellement-Percolation  (mm)"),
	bounds("intermediate_half-life_seepage", "Temps de 1/2 percolation vers la nappe          (mois)"),
	bounds("groundwater_1_drainage", "Temps de 1/2 tarissement du débit souterr. n°1  (mois)"),
	bounds("groundwater_1_2_exchange", "Temps de 1/2 transfert vers la nappe profonde   (mois)"),
	bounds("groundwater_1_double_outflow_threshold", "Seuil d'écoulement souterrain n°1 (rés. double)   (mm)"),
	bounds("groundwater_2_drainage", "Temps de 1/2 tarissement du débit souterr. n°2  (mois)"),
	bounds("time_of_concentration", "Temps de réaction ('retard') du débit   (pas de temps)"),
	bounds("groundwater_external_exchange", "Facteur d'échange souterrain externe               (%)"),
	bounds("thornthewaite_reservoir_initial_deficit", "Déficit initial du réservoir sol 'réserve utile'  (mm)"),
	bounds("progressive_reservoir_initial_deficit", "Déficit initial du réservoir sol progressif       (mm)"),
	bounds("intermediate_runoff_threshold", "Seuil de ruissellement par débordement            (mm)"),
	bounds("intermediate_half-life_runoff_by_overspill", "Temps de 1/2 ruissell. par débordement  (Pas de temps)"),
	bounds("intermediate_half-life_max_runoff_decrease", "Temps de 1/2 décroiss. maximal du ruissellement (mois)"),
	bounds("basin_area_correction", "Facteur de correction de la superficie du bassin   (-)"),
	bounds("groundwater_storage_coefficient", "Coefficient d'emmagasinement de la nappe           (%)"),
	banner(" *** Paramètres de Fonte de Neige           ***"),
	param("air-temp_correction", "Correction globale de la température              (°C)"),
	param("snowfall_retention_factor", "Taux de rétention de la neige                      (%)"),
	param("snow_evaporation_factor", "Facteur d'évaporation de la neige                  (%)"),
	param("snow_melt_correction_with_rainfall", "Correction de fonte de la neige par la pluie       (%)"),
	param("natural_snow_melting_threshold", "Température seuil de fonte naturelle de la neige  (°C)"),
	param("snow_melt_degree_day_factor", "Constante de fonte par la température     (mm/°C/jour)"),
	param("snow_melting_in_contact_with_soil", "Fonte de la neige au contact du sol     (1/10 mm/jour)"),
	banner(" *** Bornes des paramètres Neige            ***"),
	bounds("air-temp_correction", "Correction globale de la température              (°C)"),
	bounds("snowfall_retention_factor", "Taux de rétention de la neige                      (%)"),
	bounds("snow_evaporation_factor", "Facteur d'évaporation de la neige                  (%)"),
	bounds("snow_melt_correction_with_rainfall", "Correction de fonte de la neige par la pluie       (%)"),
	bounds("natural_snow_melting_threshold", "Température seuil de fonte naturelle de la neige  (°C)"),
	bounds("snow_melt_degree_day_factor", "Constante de fonte par la température     (mm/°C/jour)"),
	bounds("snow_melting_in_contact_with_soil", "Fonte de la neige au contact du sol     (1/10 mm/jour)"),
	banner(" *** Paramètres de Pompage           ***"),
	param("pumping_river_influence_factor", "Coefficient d'influence du pompage => Débit Rivière (-)"),
	param("pumping_river_half-life_rise", "Temps de 1/2 montée du pompage infl. => Rivière  (mois)"),
	param("pumping_river_half-life_fall", "Temps de 1/2 stabilisation du pompage => Rivière (mois)"),
	param("pumping_groundwater_influence_factor", "Coefficient d'influence du pompage => Niveau Nappe  (-)"),
	param("pumping_groundwater_half-life_rise", "Temps de 1/2 montée du pompage infl. => Nappe    (mois)"),
	param("pumping_groundwater_half-life_fall", "Temps de 1/2 stabilisation du pompage => Nappe   (mois)"),
	banner(" *** Bornes des paramètres Pompage   ***"),
	bounds("pumping_river_half-life_rise", "Temps de 1/2 montée du pompage infl. => Rivière  (mois)"),
	bounds("pumping_river_half-life_fall", "Temps de 1/2 stabilisation du pompage => Rivière (mois)"),
	bounds("pumping_groundwater_half-life_rise", "Temps de 1/2 montée du pompage infl. => Nappe    (mois)"),
	bounds("pumping_groundwater_half-life_fall", "Temps de 1/2 stabilisation du pompage => Nappe   (mois)"),
	banner(" *** >>>>>>>>>>>>>> Fin des données du bassin ] >>>>>"),
	banner(" "),
}
